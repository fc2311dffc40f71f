package repository

import (
	"context"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"gorm.io/gorm"
)

type RelationRepository interface {
	Create(ctx context.Context, rel *model.UserConversationRelation) error
	Find(ctx context.Context, convID uint64, uid string) (*model.UserConversationRelation, error)
	Delete(ctx context.Context, convID uint64, uid string) error
	SetMuted(ctx context.Context, convID uint64, uid string, muted bool) error
	AdvanceReadTime(ctx context.Context, convID uint64, uid string, upto time.Time) error
}

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) Create(ctx context.Context, rel *model.UserConversationRelation) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

func (r *relationRepository) Find(ctx context.Context, convID uint64, uid string) (*model.UserConversationRelation, error) {
	var rel model.UserConversationRelation
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, uid).
		First(&rel).Error; err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *relationRepository) Delete(ctx context.Context, convID uint64, uid string) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", convID, uid).
		Delete(&model.UserConversationRelation{}).Error
}

func (r *relationRepository) SetMuted(ctx context.Context, convID uint64, uid string, muted bool) error {
	return r.db.WithContext(ctx).
		Model(&model.UserConversationRelation{}).
		Where("conversation_id = ? AND user_id = ?", convID, uid).
		Update("muted", muted).Error
}

// AdvanceReadTime moves the last-read marker forward, never back. The
// guard lives in the query so concurrent reads cannot regress each other.
func (r *relationRepository) AdvanceReadTime(ctx context.Context, convID uint64, uid string, upto time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.UserConversationRelation{}).
		Where("conversation_id = ? AND user_id = ?", convID, uid).
		Where("read_time_stamp IS NULL OR read_time_stamp < ?", upto).
		Update("read_time_stamp", upto).Error
}
