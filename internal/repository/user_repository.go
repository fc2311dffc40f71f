package repository

import (
	"context"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Upsert(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, uid string) (*model.User, error)
	SetCurrentChannel(ctx context.Context, uid string, channel int64) error
	SetEmailNotification(ctx context.Context, uid string, enabled bool) error
	DigestCandidates(ctx context.Context, notEmailedSince time.Time) ([]model.User, error)
	SetLastEmailTime(ctx context.Context, uid string, t time.Time) error
	AddDevice(ctx context.Context, d *model.Device) error
	RemoveDevice(ctx context.Context, uid string, deviceID uint64) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Upsert(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).
		Where("id = ?", u.ID).
		Attrs(model.User{CurrentChannel: -1}).
		FirstOrCreate(u).Error
}

func (r *userRepository) FindByID(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).
		Preload("HisDevices").
		First(&u, "id = ?", uid).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) SetCurrentChannel(ctx context.Context, uid string, channel int64) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", uid).
		Update("current_channel", channel).Error
}

func (r *userRepository) SetEmailNotification(ctx context.Context, uid string, enabled bool) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", uid).
		Update("enable_email_notification", enabled).Error
}

// DigestCandidates lists users who opted into email digests and have not
// been emailed since the given instant.
func (r *userRepository) DigestCandidates(ctx context.Context, notEmailedSince time.Time) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("enable_email_notification = ?", true).
		Where("last_email_him_time < ?", notEmailedSince).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) SetLastEmailTime(ctx context.Context, uid string, t time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", uid).
		Update("last_email_him_time", t).Error
}

func (r *userRepository) AddDevice(ctx context.Context, d *model.Device) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *userRepository) RemoveDevice(ctx context.Context, uid string, deviceID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", uid, deviceID).
		Delete(&model.Device{}).Error
}
