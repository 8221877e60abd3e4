package friendship

import (
	"context"
	"errors"
	"fmt"

	"github.com/craftlink/server/account"
	"github.com/craftlink/server/config"
	"github.com/craftlink/server/hook"
	"github.com/craftlink/server/model"
	"github.com/craftlink/server/social/store"
	"go.uber.org/zap"
)

var (
	ErrSelfRequest      = errors.New("friendship: cannot friend yourself")
	ErrUserNotFound     = errors.New("friendship: user not found")
	ErrBlocked          = errors.New("friendship: blocked")
	ErrAlreadyFriends   = errors.New("friendship: already friends")
	ErrRequestSent      = errors.New("friendship: request already sent")
	ErrRequestReceived  = errors.New("friendship: request already received")
	ErrFriendLimit      = errors.New("friendship: friend limit reached")
	ErrNoPendingRequest = errors.New("friendship: no pending request")
	ErrNotAuthorized    = errors.New("friendship: not authorized")
	ErrNotFriends       = errors.New("friendship: not friends")
	ErrRateLimited      = errors.New("friendship: too many requests")
)

// Service drives the friend-request lifecycle: send, accept, reject,
// cancel, and removal of established friendships. All state transitions
// go through the store; interested parties subscribe via hooks.
type Service struct {
	store    *store.Store
	accounts account.Directory
	hooks    *hook.Center
	policy   RequestPolicy
	logger   *zap.Logger
	cfg      config.SocialConfig
}

func NewService(st *store.Store, accounts account.Directory, hooks *hook.Center, policy RequestPolicy, logger *zap.Logger, cfg config.SocialConfig) *Service {
	if policy == nil {
		policy = AllowAll{}
	}
	if cfg.MaxFriends <= 0 {
		cfg.MaxFriends = 20
	}
	return &Service{store: st, accounts: accounts, hooks: hooks, policy: policy, logger: logger, cfg: cfg}
}

// Send creates a pending friend request from sender to receiver.
//
// Preconditions are checked in order: self, receiver existence and
// activity, the sender's own friend capacity, blocks in either direction,
// existing friendship, pending request in either direction. A concurrent
// duplicate send loses on the unique index and surfaces as ErrRequestSent.
func (s *Service) Send(ctx context.Context, senderID, receiverID int64) (int64, error) {
	if senderID == receiverID {
		return 0, ErrSelfRequest
	}
	if !s.policy.Allow(senderID) {
		return 0, ErrRateLimited
	}
	active, err := s.accounts.IsActive(ctx, receiverID)
	if err != nil {
		return 0, err
	}
	if !active {
		return 0, ErrUserNotFound
	}
	n, err := s.store.CountAcceptedFriendships(ctx, senderID)
	if err != nil {
		return 0, err
	}
	if n >= int64(s.cfg.MaxFriends) {
		return 0, fmt.Errorf("user %d: %w", senderID, ErrFriendLimit)
	}

	rel, err := s.store.FindRelationship(ctx, senderID, receiverID)
	if err != nil {
		return 0, err
	}
	switch {
	case rel.BlockOut != nil || rel.BlockIn != nil:
		return 0, ErrBlocked
	case rel.Friendship != nil:
		return 0, ErrAlreadyFriends
	case rel.PendingRequest != nil && rel.PendingRequest.SenderID == senderID:
		return 0, ErrRequestSent
	case rel.PendingRequest != nil:
		return 0, ErrRequestReceived
	}

	id, err := s.store.InsertPendingRequest(ctx, senderID, receiverID)
	if errors.Is(err, store.ErrConflict) {
		return 0, ErrRequestSent
	}
	if err != nil {
		return 0, err
	}

	s.trigger(ctx, hook.OnRequestSent, senderID, receiverID, id)
	return id, nil
}

// Accept settles a pending request as accepted and creates the symmetric
// friendship. Only the receiver may accept. Both sides' friend counts are
// checked under the request row lock, so two concurrent accepts cannot
// push either side past the cap; ErrFriendLimit is wrapped with the id of
// the side that is full.
func (s *Service) Accept(ctx context.Context, userID, requestID int64) error {
	var senderID int64
	err := s.store.WithLockedRequest(ctx, requestID, func(tx *store.Store, req *model.FriendRequest) error {
		if req.ReceiverID != userID {
			return ErrNotAuthorized
		}
		senderID = req.SenderID

		// Re-check under the lock; a crossed request settled first
		// may already have created the friendship.
		exists, err := tx.FriendshipExists(ctx, req.SenderID, req.ReceiverID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyFriends
		}

		for _, id := range []int64{req.ReceiverID, req.SenderID} {
			n, err := tx.CountAcceptedFriendships(ctx, id)
			if err != nil {
				return err
			}
			if n >= int64(s.cfg.MaxFriends) {
				return fmt.Errorf("user %d: %w", id, ErrFriendLimit)
			}
		}

		if err := tx.UpdateRequestStatus(ctx, req.ID, model.RequestAccepted); err != nil {
			return err
		}
		return tx.InsertSymmetricFriendship(ctx, req.SenderID, req.ReceiverID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoPendingRequest
	}
	if err != nil {
		return err
	}

	s.trigger(ctx, hook.OnRequestAccepted, userID, senderID, requestID)
	return nil
}

// Reject settles a pending request as rejected. Only the receiver may
// reject; the request row is kept for history.
func (s *Service) Reject(ctx context.Context, userID, requestID int64) error {
	var senderID int64
	err := s.store.WithLockedRequest(ctx, requestID, func(tx *store.Store, req *model.FriendRequest) error {
		if req.ReceiverID != userID {
			return ErrNotAuthorized
		}
		senderID = req.SenderID
		return tx.UpdateRequestStatus(ctx, req.ID, model.RequestRejected)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoPendingRequest
	}
	if err != nil {
		return err
	}

	s.trigger(ctx, hook.OnRequestRejected, userID, senderID, requestID)
	return nil
}

// Cancel withdraws the sender's own pending request to receiver.
// The row is deleted outright, so a later Send starts fresh.
func (s *Service) Cancel(ctx context.Context, senderID, receiverID int64) error {
	err := s.store.DeletePendingRequest(ctx, senderID, receiverID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoPendingRequest
	}
	if err != nil {
		return err
	}

	s.trigger(ctx, hook.OnRequestCancelled, senderID, receiverID, 0)
	return nil
}

// RemoveFriend dissolves the friendship between userID and friendID.
// Either side may remove; both rows of the pair go away together.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	err := s.store.DeleteSymmetricFriendship(ctx, userID, friendID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFriends
	}
	if err != nil {
		return err
	}

	s.trigger(ctx, hook.OnFriendRemoved, userID, friendID, 0)
	return nil
}

// Friends returns a page of the user's friends, most recently active first.
func (s *Service) Friends(ctx context.Context, userID int64, offset, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListFriends(ctx, userID, offset, limit)
}

// IncomingRequests returns the user's pending incoming requests.
func (s *Service) IncomingRequests(ctx context.Context, userID int64) ([]store.IncomingRequest, error) {
	return s.store.ListIncomingRequests(ctx, userID)
}

// UnreadRequestCount counts pending requests the user has not seen yet.
func (s *Service) UnreadRequestCount(ctx context.Context, userID int64) (int64, error) {
	return s.store.CountUnreadRequests(ctx, userID)
}

// MarkRequestsRead flags all pending incoming requests as seen.
func (s *Service) MarkRequestsRead(ctx context.Context, userID int64) error {
	return s.store.MarkRequestsRead(ctx, userID)
}

func (s *Service) trigger(ctx context.Context, event string, actorID, targetID, requestID int64) {
	_, err := s.hooks.Trigger(ctx, event, &hook.RelationshipEvent{
		ActorID:   actorID,
		TargetID:  targetID,
		RequestID: requestID,
	})
	if err != nil {
		s.logger.Warn("hook trigger failed",
			zap.String("event", event),
			zap.Int64("actor_id", actorID),
			zap.Error(err),
		)
	}
}
