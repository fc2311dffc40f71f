package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/push"
	"github.com/LXKing/Kahla/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationService interface {
	GetMessages(ctx context.Context, convID uint64, callerID string, take int, skipFrom string) ([]model.Message, error)
	SendMessage(ctx context.Context, convID uint64, callerID, content, messageID string, atIDs []string, recordTime time.Time) (*model.Message, error)
	UpdateRetention(ctx context.Context, convID uint64, callerID string, newMaxLiveSeconds int) error
	Detail(ctx context.Context, convID uint64, callerID string) (*model.Conversation, error)
	FileHistory(ctx context.Context, convID uint64, callerID string) ([]push.Folder, error)
	ListByUser(ctx context.Context, callerID string) ([]model.Conversation, error)
}

type conversationService struct {
	convRepo    repository.ConversationRepository
	relRepo     repository.RelationRepository
	pusher      Pusher
	attachments push.AttachmentStore
	locks       conversationLocks
	logger      *slog.Logger
}

func NewConversationService(convRepo repository.ConversationRepository, relRepo repository.RelationRepository, pusher Pusher, attachments push.AttachmentStore) ConversationService {
	return &conversationService{
		convRepo:    convRepo,
		relRepo:     relRepo,
		pusher:      pusher,
		attachments: attachments,
		logger:      slog.Default(),
	}
}

// conversationLocks serializes mutations to one conversation's retention
// window against in-flight sends, so a shrink can never truncate a message
// half-way through being persisted.
type conversationLocks struct {
	mu sync.Mutex
	m  map[uint64]*sync.Mutex
}

func (l *conversationLocks) of(id uint64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[uint64]*sync.Mutex)
	}
	if _, ok := l.m[id]; !ok {
		l.m[id] = &sync.Mutex{}
	}
	return l.m[id]
}

func (s *conversationService) findForMember(ctx context.Context, convID uint64, callerID string) (*model.Conversation, error) {
	cv, err := s.convRepo.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !cv.HasUser(callerID) {
		return nil, ErrUnauthorized
	}
	return cv, nil
}

// GetMessages returns the take most recent retained messages before the
// cursor, reordered oldest-to-newest. An unresolvable cursor degrades to
// "start from newest". Reading advances the caller's last-read marker.
func (s *conversationService) GetMessages(ctx context.Context, convID uint64, callerID string, take int, skipFrom string) ([]model.Message, error) {
	cv, err := s.findForMember(ctx, convID, callerID)
	if err != nil {
		return nil, err
	}
	if take <= 0 {
		take = 15
	}
	now := time.Now().UTC()
	oldest := OldestAllowed(cv.MaxLiveSeconds, now)

	var before *time.Time
	if skipFrom != "" {
		if cursor, err := s.convRepo.FindMessage(ctx, convID, skipFrom); err == nil {
			before = &cursor.SendTime
		}
	}

	msgs, err := s.convRepo.ListMessages(ctx, convID, oldest, before, take)
	if err != nil {
		return nil, err
	}
	// Repo returns newest-first; flip to display order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	lastRead := cv.RelationOf(callerID).ReadTimeStamp
	for i := range msgs {
		msgs[i].Read = lastRead != nil && !msgs[i].SendTime.After(*lastRead)
	}
	if err := s.relRepo.AdvanceReadTime(ctx, convID, callerID, now); err != nil {
		s.logger.Warn("advance read time failed", "conversationId", convID, "userId", callerID, "error", err)
	}
	return msgs, nil
}

// SendMessage persists the message and its mentions atomically, advances
// the sender's own last-read marker, then fans the event out. A resend of
// an already-persisted message id returns the stored message untouched.
// Only the write runs under the conversation lock; dispatch happens after
// it is released, so one sender's slow transports never stall another's
// send.
func (s *conversationService) SendMessage(ctx context.Context, convID uint64, callerID, content, messageID string, atIDs []string, recordTime time.Time) (*model.Message, error) {
	cv, msg, fresh, err := s.storeMessage(ctx, convID, callerID, content, messageID, atIDs, recordTime)
	if err != nil {
		return nil, err
	}
	if fresh {
		s.pusher.NewMessageEvent(ctx, cv, msg)
	}
	return msg, nil
}

// storeMessage validates and persists under the conversation lock. The
// fresh flag is false for a deduplicated resend, which must not dispatch
// again.
func (s *conversationService) storeMessage(ctx context.Context, convID uint64, callerID, content, messageID string, atIDs []string, recordTime time.Time) (*model.Conversation, *model.Message, bool, error) {
	lock := s.locks.of(convID)
	lock.Lock()
	defer lock.Unlock()

	cv, err := s.findForMember(ctx, convID, callerID)
	if err != nil {
		return nil, nil, false, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil, false, fmt.Errorf("%w: can not send empty message", ErrInvalidInput)
	}
	if _, err := uuid.Parse(messageID); err != nil {
		return nil, nil, false, fmt.Errorf("%w: message id must be a valid uuid", ErrInvalidInput)
	}
	if existing, err := s.convRepo.FindMessage(ctx, convID, messageID); err == nil {
		return cv, existing, false, nil
	}

	for _, atID := range atIDs {
		if !cv.HasUser(atID) {
			return nil, nil, false, fmt.Errorf("%w: can not at user %q who is not in this conversation", ErrInvalidInput, atID)
		}
	}
	ats := make([]model.At, 0, len(atIDs))
	for _, atID := range atIDs {
		ats = append(ats, model.At{TargetUserID: atID})
	}

	sendTime := ClampSendTime(recordTime, time.Now().UTC())
	msg := &model.Message{
		ID:             messageID,
		ConversationID: cv.ID,
		SenderID:       callerID,
		Content:        content,
		SendTime:       sendTime,
		Ats:            ats,
	}
	if err := s.convRepo.CreateMessage(ctx, msg); err != nil {
		return nil, nil, false, err
	}
	if err := s.relRepo.AdvanceReadTime(ctx, convID, callerID, sendTime); err != nil {
		s.logger.Warn("advance sender read time failed", "conversationId", convID, "userId", callerID, "error", err)
	}
	return cv, msg, true, nil
}

// UpdateRetention shrinks or extends the conversation's message lifetime.
// The one-time cleanup uses the tighter of the old and new windows, so a
// shrink deletes exactly the messages alive under the old window that
// would die under the new one.
func (s *conversationService) UpdateRetention(ctx context.Context, convID uint64, callerID string, newMaxLiveSeconds int) error {
	if newMaxLiveSeconds <= 0 {
		return fmt.Errorf("%w: life time must be positive", ErrInvalidInput)
	}
	lock := s.locks.of(convID)
	lock.Lock()
	defer lock.Unlock()

	cv, err := s.findForMember(ctx, convID, callerID)
	if err != nil {
		return err
	}
	if cv.IsGroup() && cv.OwnerID != callerID {
		return fmt.Errorf("%w: only the group owner may change the life time", ErrUnauthorized)
	}

	window := cv.MaxLiveSeconds
	if newMaxLiveSeconds < window {
		window = newMaxLiveSeconds
	}
	cutoff := OldestAllowed(window, time.Now().UTC())
	if _, err := s.convRepo.DeleteMessagesBefore(ctx, convID, cutoff); err != nil {
		return err
	}
	if err := s.convRepo.UpdateMaxLiveSeconds(ctx, convID, newMaxLiveSeconds); err != nil {
		return err
	}
	s.pusher.RetentionUpdatedEvent(ctx, cv, newMaxLiveSeconds)
	return nil
}

func (s *conversationService) Detail(ctx context.Context, convID uint64, callerID string) (*model.Conversation, error) {
	return s.findForMember(ctx, convID, callerID)
}

// FileHistory lists the attachments stored under the conversation's folder.
func (s *conversationService) FileHistory(ctx context.Context, convID uint64, callerID string) ([]push.Folder, error) {
	if _, err := s.findForMember(ctx, convID, callerID); err != nil {
		return nil, err
	}
	if s.attachments == nil {
		return []push.Folder{}, nil
	}
	return s.attachments.List(ctx, fmt.Sprintf("conversation-%d", convID))
}

func (s *conversationService) ListByUser(ctx context.Context, callerID string) ([]model.Conversation, error) {
	return s.convRepo.FindByUser(ctx, callerID)
}
