package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/repository"
	"gorm.io/gorm"
)

type GroupService interface {
	CreateGroup(ctx context.Context, ownerID, name string) (*model.Conversation, error)
	Join(ctx context.Context, convID uint64, userID string) error
	Leave(ctx context.Context, convID uint64, userID string) error
	Dissolve(ctx context.Context, convID uint64, callerID string) error
	SetMuted(ctx context.Context, convID uint64, userID string, muted bool) error
}

type groupService struct {
	convRepo repository.ConversationRepository
	relRepo  repository.RelationRepository
	users    repository.UserRepository
	pusher   Pusher
}

func NewGroupService(convRepo repository.ConversationRepository, relRepo repository.RelationRepository, users repository.UserRepository, pusher Pusher) GroupService {
	return &groupService{convRepo: convRepo, relRepo: relRepo, users: users, pusher: pusher}
}

func (s *groupService) CreateGroup(ctx context.Context, ownerID, name string) (*model.Conversation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	cv := &model.Conversation{
		Discriminator:  model.DiscriminatorGroup,
		GroupName:      name,
		OwnerID:        ownerID,
		AESKey:         newAESKey(),
		MaxLiveSeconds: model.DefaultMaxLiveSeconds,
		Users: []model.UserConversationRelation{
			{UserID: ownerID},
		},
	}
	if err := s.convRepo.Create(ctx, cv); err != nil {
		return nil, err
	}
	return cv, nil
}

func (s *groupService) Join(ctx context.Context, convID uint64, userID string) error {
	cv, err := s.findGroup(ctx, convID)
	if err != nil {
		return err
	}
	if cv.HasUser(userID) {
		return fmt.Errorf("%w: you are already in this group", ErrInvalidInput)
	}
	if err := s.relRepo.Create(ctx, &model.UserConversationRelation{
		ConversationID: convID,
		UserID:         userID,
	}); err != nil {
		return err
	}
	newMember, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	// Reload so the fan-out snapshot includes the joiner.
	if cv, err = s.convRepo.FindByID(ctx, convID); err != nil {
		return err
	}
	s.pusher.NewMemberEvent(ctx, cv, newMember)
	return nil
}

func (s *groupService) Leave(ctx context.Context, convID uint64, userID string) error {
	cv, err := s.findGroup(ctx, convID)
	if err != nil {
		return err
	}
	if !cv.HasUser(userID) {
		return ErrUnauthorized
	}
	if cv.OwnerID == userID {
		return fmt.Errorf("%w: the owner can not leave; dissolve the group instead", ErrInvalidInput)
	}
	if err := s.relRepo.Delete(ctx, convID, userID); err != nil {
		return err
	}
	left, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if cv, err = s.convRepo.FindByID(ctx, convID); err != nil {
		return err
	}
	s.pusher.MemberLeftEvent(ctx, cv, left)
	return nil
}

// Dissolve removes the group and everything in it. Members are notified
// from the membership snapshot taken before deletion.
func (s *groupService) Dissolve(ctx context.Context, convID uint64, callerID string) error {
	cv, err := s.findGroup(ctx, convID)
	if err != nil {
		return err
	}
	if cv.OwnerID != callerID {
		return fmt.Errorf("%w: only the owner can dissolve the group", ErrUnauthorized)
	}
	if err := s.convRepo.Delete(ctx, convID); err != nil {
		return err
	}
	s.pusher.DissolvedEvent(ctx, cv)
	return nil
}

func (s *groupService) SetMuted(ctx context.Context, convID uint64, userID string, muted bool) error {
	cv, err := s.findGroup(ctx, convID)
	if err != nil {
		return err
	}
	if !cv.HasUser(userID) {
		return ErrUnauthorized
	}
	return s.relRepo.SetMuted(ctx, convID, userID, muted)
}

func (s *groupService) findGroup(ctx context.Context, convID uint64) (*model.Conversation, error) {
	cv, err := s.convRepo.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !cv.IsGroup() {
		return nil, fmt.Errorf("%w: conversation %d is not a group", ErrInvalidInput, convID)
	}
	return cv, nil
}
