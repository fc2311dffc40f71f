package repository

import (
	"context"
	"errors"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

type ConversationRepository interface {
	Create(ctx context.Context, cv *model.Conversation) error
	FindByID(ctx context.Context, id uint64) (*model.Conversation, error)
	FindByUser(ctx context.Context, uid string) ([]model.Conversation, error)
	FindPrivateBetween(ctx context.Context, a, b string) (*model.Conversation, error)
	Delete(ctx context.Context, id uint64) error
	UpdateMaxLiveSeconds(ctx context.Context, id uint64, seconds int) error

	CreateMessage(ctx context.Context, msg *model.Message) error
	FindMessage(ctx context.Context, convID uint64, messageID string) (*model.Message, error)
	ListMessages(ctx context.Context, convID uint64, oldest time.Time, before *time.Time, take int) ([]model.Message, error)
	DeleteMessagesBefore(ctx context.Context, convID uint64, cutoff time.Time) (int64, error)
	CountMessagesAfter(ctx context.Context, convID uint64, oldest time.Time, after *time.Time) (int64, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, cv *model.Conversation) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(cv).Error
}

// FindByID loads the conversation together with a snapshot of its
// membership, including each member's user record and devices. Callers
// iterate that snapshot; later membership changes do not affect it.
func (r *conversationRepository) FindByID(ctx context.Context, id uint64) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Users").
		Preload("Users.User").
		Preload("Users.User.HisDevices").
		First(&cv, id).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *conversationRepository) FindByUser(ctx context.Context, uid string) ([]model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Users").
		Preload("Users.User").
		Joins("JOIN user_conversation_relations ucr ON ucr.conversation_id = conversations.id").
		Where("ucr.user_id = ?", uid).
		Order("conversations.updated_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *conversationRepository) FindPrivateBetween(ctx context.Context, a, b string) (*model.Conversation, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var cv model.Conversation
	err := r.db.WithContext(ctx).
		Preload("Users").
		Preload("Users.User").
		Preload("Users.User.HisDevices").
		Where("discriminator = ?", model.DiscriminatorPrivate).
		Where("id IN (?)", r.db.Model(&model.UserConversationRelation{}).
			Select("conversation_id").
			Where("user_id IN ?", []string{a, b}).
			Group("conversation_id").
			Having("COUNT(DISTINCT user_id) = 2")).
		First(&cv).Error
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// Delete dissolves a conversation: relations, messages and mentions go
// with it in one transaction.
func (r *conversationRepository) Delete(ctx context.Context, id uint64) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_seq IN (?)", tx.Model(&model.Message{}).
			Select("seq").Where("conversation_id = ?", id)).
			Delete(&model.At{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", id).Delete(&model.UserConversationRelation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, id).Error
	})
}

func (r *conversationRepository) UpdateMaxLiveSeconds(ctx context.Context, id uint64, seconds int) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("max_live_seconds", seconds).Error
}

// CreateMessage persists the message and its mentions atomically.
func (r *conversationRepository) CreateMessage(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(msg).Error
	})
}

func (r *conversationRepository) FindMessage(ctx context.Context, convID uint64, messageID string) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).
		Preload("Ats").
		Where("conversation_id = ? AND id = ?", convID, messageID).
		First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns up to take messages newest-first. Ties on send_time
// fall back to insertion order.
func (r *conversationRepository) ListMessages(ctx context.Context, convID uint64, oldest time.Time, before *time.Time, take int) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).
		Preload("Ats").
		Where("conversation_id = ?", convID).
		Where("send_time > ?", oldest)
	if before != nil {
		q = q.Where("send_time < ?", *before)
	}
	var msgs []model.Message
	if err := q.Order("send_time DESC").Order("seq DESC").Limit(take).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *conversationRepository) DeleteMessagesBefore(ctx context.Context, convID uint64, cutoff time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_seq IN (?)", tx.Model(&model.Message{}).
			Select("seq").
			Where("conversation_id = ? AND send_time < ?", convID, cutoff)).
			Delete(&model.At{}).Error; err != nil {
			return err
		}
		res := tx.Where("conversation_id = ? AND send_time < ?", convID, cutoff).
			Delete(&model.Message{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

func (r *conversationRepository) CountMessagesAfter(ctx context.Context, convID uint64, oldest time.Time, after *time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	q := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ?", convID).
		Where("send_time > ?", oldest)
	if after != nil {
		q = q.Where("send_time > ?", *after)
	}
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
