package service

import (
	"context"
	"errors"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	InitChannel(ctx context.Context, userID string) (int64, error)
	DropChannel(ctx context.Context, userID string) error
	RegisterDevice(ctx context.Context, userID, name, pushToken string) (*model.Device, error)
	RemoveDevice(ctx context.Context, userID string, deviceID uint64) error
	SetEmailNotification(ctx context.Context, userID string, enabled bool) error
	Me(ctx context.Context, userID string) (*model.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

// InitChannel allocates a fresh real-time channel id for the user and
// records it as their current channel. Reconnecting replaces the old id;
// a user listens on one channel at a time.
func (s *userService) InitChannel(ctx context.Context, userID string) (int64, error) {
	channel := int64(uuid.New().ID())
	if err := s.users.SetCurrentChannel(ctx, userID, channel); err != nil {
		return 0, err
	}
	return channel, nil
}

func (s *userService) DropChannel(ctx context.Context, userID string) error {
	return s.users.SetCurrentChannel(ctx, userID, -1)
}

func (s *userService) RegisterDevice(ctx context.Context, userID, name, pushToken string) (*model.Device, error) {
	if pushToken == "" {
		return nil, ErrInvalidInput
	}
	d := &model.Device{UserID: userID, Name: name, PushToken: pushToken}
	if err := s.users.AddDevice(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *userService) RemoveDevice(ctx context.Context, userID string, deviceID uint64) error {
	return s.users.RemoveDevice(ctx, userID, deviceID)
}

func (s *userService) SetEmailNotification(ctx context.Context, userID string, enabled bool) error {
	return s.users.SetEmailNotification(ctx, userID, enabled)
}

func (s *userService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
