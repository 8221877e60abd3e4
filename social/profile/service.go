package profile

import (
	"context"
	"errors"

	"github.com/craftlink/server/hook"
	"github.com/craftlink/server/model"
	"github.com/craftlink/server/social/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSelfLike      = errors.New("profile: cannot like yourself")
	ErrUserNotFound  = errors.New("profile: user not found")
	ErrBlocked       = errors.New("profile: blocked")
	ErrItemNotFound  = errors.New("profile: portfolio item not found")
	ErrNotAuthorized = errors.New("profile: not authorized")
)

// Service manages profile-owned signals: likes and portfolio items.
// Both feed the reputation engine through hooks.
type Service struct {
	db     *gorm.DB
	store  *store.Store
	hooks  *hook.Center
	logger *zap.Logger
}

func NewService(db *gorm.DB, st *store.Store, hooks *hook.Center, logger *zap.Logger) *Service {
	return &Service{db: db, store: st, hooks: hooks, logger: logger}
}

// ToggleLike flips likerID's like on targetID and returns the new state.
// The denormalized counter on the target moves in the same transaction
// as the like row, so the two can never drift.
func (s *Service) ToggleLike(ctx context.Context, likerID, targetID int64) (liked bool, err error) {
	if likerID == targetID {
		return false, ErrSelfLike
	}

	rel, err := s.store.FindRelationship(ctx, likerID, targetID)
	if err != nil {
		return false, err
	}
	if rel.BlockOut != nil || rel.BlockIn != nil {
		return false, ErrBlocked
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target model.User
		if err := tx.First(&target, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !target.IsActive {
			return ErrUserNotFound
		}

		res := tx.Where("user_id = ? AND friend_id = ?", likerID, targetID).
			Delete(&model.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return tx.Model(&target).
				Update("likes_received", gorm.Expr("likes_received - 1")).Error
		}

		if err := tx.Create(&model.Like{UserID: likerID, FriendID: targetID}).Error; err != nil {
			return err
		}
		liked = true
		return tx.Model(&target).
			Update("likes_received", gorm.Expr("likes_received + 1")).Error
	})
	if err != nil {
		return false, err
	}

	s.trigger(ctx, hook.OnLikeToggled, likerID, targetID)
	return liked, nil
}

// AddPortfolioItem appends a work sample to the owner's portfolio.
func (s *Service) AddPortfolioItem(ctx context.Context, ownerID int64, title, imagePath string) (*model.PortfolioItem, error) {
	item := &model.PortfolioItem{UserID: ownerID, Title: title, ImagePath: imagePath}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	s.trigger(ctx, hook.OnPortfolioChanged, ownerID, 0)
	return item, nil
}

// DeletePortfolioItem removes one of the owner's items. Owners can only
// touch their own items.
func (s *Service) DeletePortfolioItem(ctx context.Context, ownerID, itemID int64) error {
	var item model.PortfolioItem
	err := s.db.WithContext(ctx).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	if item.UserID != ownerID {
		return ErrNotAuthorized
	}
	if err := s.db.WithContext(ctx).Delete(&item).Error; err != nil {
		return err
	}
	s.trigger(ctx, hook.OnPortfolioChanged, ownerID, 0)
	return nil
}

// Portfolio lists a user's items, newest first.
func (s *Service) Portfolio(ctx context.Context, userID int64) ([]model.PortfolioItem, error) {
	var items []model.PortfolioItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// View loads a profile as seen by viewerID. Accounts that block the
// viewer are invisible, same as in search.
func (s *Service) View(ctx context.Context, viewerID, userID int64) (*model.User, error) {
	if viewerID != userID {
		rel, err := s.store.FindRelationship(ctx, viewerID, userID)
		if err != nil {
			return nil, err
		}
		if rel.BlockIn != nil {
			return nil, ErrUserNotFound
		}
	}
	var u model.User
	err := s.db.WithContext(ctx).First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (s *Service) trigger(ctx context.Context, event string, actorID, targetID int64) {
	_, err := s.hooks.Trigger(ctx, event, &hook.RelationshipEvent{
		ActorID:  actorID,
		TargetID: targetID,
	})
	if err != nil {
		s.logger.Warn("hook trigger failed", zap.String("event", event), zap.Error(err))
	}
}
