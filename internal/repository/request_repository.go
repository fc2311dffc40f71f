package repository

import (
	"context"

	"github.com/LXKing/Kahla/internal/model"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uint64) (*model.Request, error)
	FindPendingBetween(ctx context.Context, creatorID, targetID string) (*model.Request, error)
	CountPending(ctx context.Context, targetID string) (int64, error)
	MarkCompleted(ctx context.Context, id uint64) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uint64) (*model.Request, error) {
	var req model.Request
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindPendingBetween(ctx context.Context, creatorID, targetID string) (*model.Request, error) {
	var req model.Request
	if err := r.db.WithContext(ctx).
		Where("creator_id = ? AND target_id = ? AND completed = ?", creatorID, targetID, false).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) CountPending(ctx context.Context, targetID string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Request{}).
		Where("target_id = ? AND completed = ?", targetID, false).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *requestRepository) MarkCompleted(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.Request{}).
		Where("id = ?", id).
		Update("completed", true).Error
}
