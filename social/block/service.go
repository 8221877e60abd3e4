package block

import (
	"context"
	"errors"

	"github.com/craftlink/server/account"
	"github.com/craftlink/server/hook"
	"github.com/craftlink/server/model"
	"github.com/craftlink/server/social/store"
	"go.uber.org/zap"
)

var (
	ErrSelfBlock    = errors.New("block: cannot block yourself")
	ErrUserNotFound = errors.New("block: user not found")
	ErrNotBlocked   = errors.New("block: not blocked")
)

// Service manages directional blocks. Blocking severs everything between
// the two accounts: the friendship (if any) and pending requests in both
// directions go away in the same transaction as the block row.
type Service struct {
	store    *store.Store
	accounts account.Directory
	hooks    *hook.Center
	logger   *zap.Logger
}

func NewService(st *store.Store, accounts account.Directory, hooks *hook.Center, logger *zap.Logger) *Service {
	return &Service{store: st, accounts: accounts, hooks: hooks, logger: logger}
}

// Block records that userID blocks targetID. Idempotent: blocking an
// already blocked account refreshes the row and cascades again, which is
// harmless since the cascade deletes find nothing.
func (s *Service) Block(ctx context.Context, userID, targetID int64) error {
	if userID == targetID {
		return ErrSelfBlock
	}
	exists, err := s.accounts.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUserNotFound
	}

	err = s.store.WithTx(ctx, func(tx *store.Store) error {
		if err := tx.UpsertBlock(ctx, userID, targetID); err != nil {
			return err
		}
		if err := tx.DeleteSymmetricFriendship(ctx, userID, targetID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.DeletePendingRequestsBetween(ctx, userID, targetID)
	})
	if err != nil {
		return err
	}

	s.trigger(ctx, hook.OnUserBlocked, userID, targetID)
	return nil
}

// Unblock removes userID's block on targetID. Nothing severed by the
// block comes back; the pair simply returns to stranger state.
func (s *Service) Unblock(ctx context.Context, userID, targetID int64) error {
	err := s.store.DeleteBlock(ctx, userID, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotBlocked
	}
	if err != nil {
		return err
	}

	s.trigger(ctx, hook.OnUserUnblocked, userID, targetID)
	return nil
}

// Blocked lists the accounts userID has blocked.
func (s *Service) Blocked(ctx context.Context, userID int64) ([]model.User, error) {
	return s.store.ListBlocked(ctx, userID)
}

func (s *Service) trigger(ctx context.Context, event string, actorID, targetID int64) {
	_, err := s.hooks.Trigger(ctx, event, &hook.RelationshipEvent{
		ActorID:  actorID,
		TargetID: targetID,
	})
	if err != nil {
		s.logger.Warn("hook trigger failed",
			zap.String("event", event),
			zap.Int64("actor_id", actorID),
			zap.Error(err),
		)
	}
}
