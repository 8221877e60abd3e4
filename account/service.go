package account

import (
	"context"
	"errors"
	"time"

	"github.com/craftlink/server/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("account: not found")
	ErrEmailTaken         = errors.New("account: email already registered")
	ErrInvalidCredentials = errors.New("account: invalid credentials")
	ErrInactive           = errors.New("account: deactivated")
)

// Directory answers existence and activity questions about accounts.
// Relationship services depend on this interface rather than the full Service.
type Directory interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	IsActive(ctx context.Context, userID int64) (bool, error)
}

// Service manages user accounts.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Exists reports whether an account with the given id exists.
func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&n).Error
	return n > 0, err
}

// IsActive reports whether the account exists and is active.
func (s *Service) IsActive(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_active = ?", userID, true).Count(&n).Error
	return n > 0, err
}

// Register creates a new account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("account registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Authenticate verifies email and password and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return &u, nil
}

// Get loads one account by id.
func (s *Service) Get(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TouchLastActive records activity time, best effort.
func (s *Service) TouchLastActive(ctx context.Context, userID int64) {
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).Update("last_active_at", now).Error; err != nil {
		s.logger.Warn("touch last active", zap.Int64("user_id", userID), zap.Error(err))
	}
}
