package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FriendshipService interface {
	CreateRequest(ctx context.Context, callerID, targetID string) (*model.Request, error)
	CompleteRequest(ctx context.Context, callerID string, requestID uint64, accept bool) (*model.Conversation, error)
	RemoveFriend(ctx context.Context, callerID, friendID string) error
}

type friendshipService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
	convRepo repository.ConversationRepository
	pusher   Pusher
}

func NewFriendshipService(users repository.UserRepository, requests repository.RequestRepository, convRepo repository.ConversationRepository, pusher Pusher) FriendshipService {
	return &friendshipService{users: users, requests: requests, convRepo: convRepo, pusher: pusher}
}

func (s *friendshipService) CreateRequest(ctx context.Context, callerID, targetID string) (*model.Request, error) {
	if callerID == targetID {
		return nil, fmt.Errorf("%w: can not request yourself", ErrInvalidInput)
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if _, err := s.convRepo.FindPrivateBetween(ctx, callerID, targetID); err == nil {
		return nil, fmt.Errorf("%w: you two are already friends", ErrInvalidInput)
	}
	if _, err := s.requests.FindPendingBetween(ctx, callerID, targetID); err == nil {
		return nil, fmt.Errorf("%w: a request is already pending", ErrInvalidInput)
	}
	requester, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	req := &model.Request{CreatorID: callerID, TargetID: targetID}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.pusher.NewFriendRequestEvent(ctx, target, requester, req.ID)
	return req, nil
}

// CompleteRequest resolves a pending request. Accepting creates the
// private conversation between the two users with a fresh encryption key.
func (s *friendshipService) CompleteRequest(ctx context.Context, callerID string, requestID uint64, accept bool) (*model.Conversation, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.TargetID != callerID {
		return nil, fmt.Errorf("%w: the request is not for you", ErrUnauthorized)
	}
	if req.Completed {
		return nil, fmt.Errorf("%w: the request is already completed", ErrInvalidInput)
	}
	if err := s.requests.MarkCompleted(ctx, req.ID); err != nil {
		return nil, err
	}
	if !accept {
		return nil, nil
	}
	cv := &model.Conversation{
		Discriminator:  model.DiscriminatorPrivate,
		AESKey:         newAESKey(),
		MaxLiveSeconds: model.DefaultMaxLiveSeconds,
		Users: []model.UserConversationRelation{
			{UserID: req.CreatorID},
			{UserID: req.TargetID},
		},
	}
	if err := s.convRepo.Create(ctx, cv); err != nil {
		return nil, err
	}
	requester, err := s.users.FindByID(ctx, req.CreatorID)
	if err != nil {
		return cv, nil
	}
	accepter, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return cv, nil
	}
	s.pusher.FriendAcceptedEvent(ctx, requester, accepter)
	return cv, nil
}

// RemoveFriend dissolves the private conversation between the two users
// and tells the other side who triggered it.
func (s *friendshipService) RemoveFriend(ctx context.Context, callerID, friendID string) error {
	cv, err := s.convRepo.FindPrivateBetween(ctx, callerID, friendID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.convRepo.Delete(ctx, cv.ID); err != nil {
		return err
	}
	friendRel := cv.RelationOf(friendID)
	callerRel := cv.RelationOf(callerID)
	if friendRel != nil && callerRel != nil {
		s.pusher.WereDeletedEvent(ctx, &friendRel.User, &callerRel.User)
	}
	return nil
}

// newAESKey mints the conversation's opaque encryption material. Generated
// once at creation and never rotated here.
func newAESKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
