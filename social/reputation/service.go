package reputation

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/craftlink/server/cache"
	"github.com/craftlink/server/hook"
	"github.com/craftlink/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("reputation: user not found")

const (
	leaderboardKey   = "reputation:leaderboard"
	recomputeLockKey = "reputation:recompute"
	recomputeLockTTL = 5 * time.Minute
)

// Service maintains the cached reputation of every account. Points are
// derived from relationship and profile signals; Recompute rebuilds the
// cache for one account and keeps the leaderboard in step.
type Service struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

func NewService(db *gorm.DB, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, logger: logger}
}

// signals gathers the raw scoring inputs for one account.
func (s *Service) signals(ctx context.Context, tx *gorm.DB, u *model.User) (Signals, error) {
	var friends int64
	if err := tx.Model(&model.Friendship{}).
		Where("user_id = ? AND status = ?", u.ID, "accepted").
		Count(&friends).Error; err != nil {
		return Signals{}, err
	}
	var portfolio int64
	if err := tx.Model(&model.PortfolioItem{}).
		Where("user_id = ?", u.ID).
		Count(&portfolio).Error; err != nil {
		return Signals{}, err
	}
	ageDays := int64(time.Since(u.CreatedAt).Hours() / 24)
	if ageDays < 0 {
		ageDays = 0
	}
	return Signals{
		Likes:     u.LikesReceived,
		Friends:   friends,
		Portfolio: portfolio,
		AgeDays:   ageDays,
	}, nil
}

// Recompute rebuilds one account's points and level and refreshes its
// leaderboard entry. The leaderboard write is best effort; the database
// row is the source of truth.
func (s *Service) Recompute(ctx context.Context, userID int64) (int, error) {
	var points int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		sig, err := s.signals(ctx, tx, &u)
		if err != nil {
			return err
		}
		points = Score(sig)
		return tx.Model(&u).Updates(map[string]interface{}{
			"reputation_points": points,
			"reputation_level":  Level(points),
		}).Error
	})
	if err != nil {
		return 0, err
	}

	member := strconv.FormatInt(userID, 10)
	if err := s.cache.ZAdd(ctx, leaderboardKey, float64(points), member); err != nil {
		s.logger.Warn("leaderboard update failed", zap.Int64("user_id", userID), zap.Error(err))
	}
	return points, nil
}

// RecomputeAll rebuilds every active account, in id batches. A cache lock
// keeps overlapping sweeps (scheduler tick vs admin trigger, or two
// instances) from doubling the work; the second caller returns quietly.
func (s *Service) RecomputeAll(ctx context.Context) error {
	ok, err := s.cache.SetNX(ctx, recomputeLockKey, "1", recomputeLockTTL)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("recompute already running, skipping")
		return nil
	}
	defer func() {
		if err := s.cache.Del(context.WithoutCancel(ctx), recomputeLockKey); err != nil {
			s.logger.Warn("recompute lock release failed", zap.Error(err))
		}
	}()

	start := time.Now()
	var lastID int64
	var total int
	for {
		var ids []int64
		err := s.db.WithContext(ctx).Model(&model.User{}).
			Where("id > ? AND is_active = ?", lastID, true).
			Order("id ASC").Limit(500).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if _, err := s.Recompute(ctx, id); err != nil {
				s.logger.Warn("recompute failed", zap.Int64("user_id", id), zap.Error(err))
			}
			total++
		}
		lastID = ids[len(ids)-1]
	}

	s.logger.Info("recompute sweep done",
		zap.Int("users", total),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Entry is one leaderboard row.
type Entry struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}

// Leaderboard returns the top accounts by points. The sorted set is
// consulted first; when it is cold the database ordering serves directly.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	members, err := s.cache.ZRevRange(ctx, leaderboardKey, 0, int64(limit-1))
	if err != nil || len(members) == 0 {
		return s.leaderboardFromDB(ctx, limit)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}

	var users []model.User
	if err := s.db.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		u, found := byID[id]
		if !found {
			continue
		}
		out = append(out, Entry{UserID: u.ID, Name: u.Name, Points: u.ReputationPoints, Level: u.ReputationLevel})
	}
	return out, nil
}

func (s *Service) leaderboardFromDB(ctx context.Context, limit int) ([]Entry, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("reputation_points DESC, id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(users))
	for _, u := range users {
		out = append(out, Entry{UserID: u.ID, Name: u.Name, Points: u.ReputationPoints, Level: u.ReputationLevel})
	}
	return out, nil
}

// RegisterHooks subscribes the engine to every event that moves a signal.
// Both sides of a relationship change are rebuilt; recompute failures are
// logged and never fail the mutation that triggered them.
func (s *Service) RegisterHooks(hooks *hook.Center) {
	refresh := func(ctx context.Context, event string, data interface{}) (interface{}, error) {
		ev, ok := data.(*hook.RelationshipEvent)
		if !ok {
			return data, nil
		}
		for _, id := range []int64{ev.ActorID, ev.TargetID} {
			if id == 0 {
				continue
			}
			if _, err := s.Recompute(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
				s.logger.Warn("recompute after event failed",
					zap.String("event", event),
					zap.Int64("user_id", id),
					zap.Error(err),
				)
			}
		}
		return data, nil
	}

	for _, event := range []string{
		hook.OnRequestAccepted,
		hook.OnFriendRemoved,
		hook.OnUserBlocked,
		hook.OnLikeToggled,
		hook.OnPortfolioChanged,
	} {
		hooks.Register(event, 50, "reputation", refresh)
	}
}
