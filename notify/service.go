package notify

import (
	"context"
	"sync"
	"time"

	"github.com/craftlink/server/hook"
	"github.com/craftlink/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notification kinds.
const (
	KindFriendRequest  = "friend_request"
	KindFriendAccepted = "friend_accepted"
)

// Service persists notifications asynchronously in batches, so the
// relationship mutations that produce them never wait on a second write.
type Service struct {
	db     *gorm.DB
	ch     chan *model.Notification
	stopCh chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

// New creates a notify Service and starts its background writer.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.Notification, 1024),
		stopCh: make(chan struct{}),
		logger: logger,
	}
	svc.wg.Add(1)
	go svc.worker()
	return svc
}

// Push enqueues one notification. A full queue drops the entry rather
// than blocking the caller.
func (svc *Service) Push(recipientID, actorID int64, kind string) {
	n := &model.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        kind,
	}
	select {
	case svc.ch <- n:
	default:
		svc.logger.Warn("notification queue full, dropping",
			zap.String("kind", kind),
			zap.Int64("recipient_id", recipientID))
	}
}

// Stop flushes queued notifications and shuts down the writer.
// It blocks until the worker goroutine has finished.
func (svc *Service) Stop(_ context.Context) {
	select {
	case <-svc.stopCh:
	default:
		close(svc.stopCh)
	}
	svc.wg.Wait()
}

// List returns the recipient's notifications, newest first.
func (svc *Service) List(ctx context.Context, recipientID int64, offset, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []model.Notification
	err := svc.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

// UnreadCount counts unread notifications.
func (svc *Service) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	var n int64
	err := svc.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, err
}

// MarkAllRead flags every unread notification of the recipient as read.
func (svc *Service) MarkAllRead(ctx context.Context, recipientID int64) error {
	return svc.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

// RegisterHooks subscribes the notifier to the lifecycle events users
// care about: an incoming request and an accepted one.
func (svc *Service) RegisterHooks(hooks *hook.Center) {
	hooks.Register(hook.OnRequestSent, 60, "notify", func(ctx context.Context, event string, data interface{}) (interface{}, error) {
		if ev, ok := data.(*hook.RelationshipEvent); ok {
			svc.Push(ev.TargetID, ev.ActorID, KindFriendRequest)
		}
		return data, nil
	})
	hooks.Register(hook.OnRequestAccepted, 60, "notify", func(ctx context.Context, event string, data interface{}) (interface{}, error) {
		if ev, ok := data.(*hook.RelationshipEvent); ok {
			svc.Push(ev.TargetID, ev.ActorID, KindFriendAccepted)
		}
		return data, nil
	})
}

func (svc *Service) worker() {
	defer svc.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	batch := make([]*model.Notification, 0, 100)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("notification batch write failed", zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case n := <-svc.ch:
			batch = append(batch, n)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			// Drain remaining entries.
			for {
				select {
				case n := <-svc.ch:
					batch = append(batch, n)
				default:
					flush()
					return
				}
			}
		}
	}
}
