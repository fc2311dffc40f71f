package service

import (
	"context"
	"errors"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/repository"
	"gorm.io/gorm"
)

type UnreadService interface {
	UnreadCount(ctx context.Context, cv *model.Conversation, userID string) (int64, error)
	MarkRead(ctx context.Context, convID uint64, userID string, upto time.Time) error
}

type unreadService struct {
	convRepo repository.ConversationRepository
	relRepo  repository.RelationRepository
}

func NewUnreadService(convRepo repository.ConversationRepository, relRepo repository.RelationRepository) UnreadService {
	return &unreadService{convRepo: convRepo, relRepo: relRepo}
}

// UnreadCount counts retained messages newer than the member's last-read
// marker. Messages already past the retention window never count, read or
// not.
func (s *unreadService) UnreadCount(ctx context.Context, cv *model.Conversation, userID string) (int64, error) {
	rel := cv.RelationOf(userID)
	if rel == nil {
		return 0, ErrUnauthorized
	}
	oldest := OldestAllowed(cv.MaxLiveSeconds, time.Now().UTC())
	return s.convRepo.CountMessagesAfter(ctx, cv.ID, oldest, rel.ReadTimeStamp)
}

// MarkRead advances the member's last-read marker; it never regresses.
func (s *unreadService) MarkRead(ctx context.Context, convID uint64, userID string, upto time.Time) error {
	if _, err := s.relRepo.Find(ctx, convID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.relRepo.AdvanceReadTime(ctx, convID, userID, upto)
}
