package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
		Logger:  logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.Conversation{},
		&model.UserConversationRelation{},
		&model.Message{},
		&model.At{},
		&model.Request{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string) *model.User {
	t.Helper()
	u := &model.User{ID: id, Email: id + "@example.com", NickName: id, CurrentChannel: -1}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return u
}

func seedGroup(t *testing.T, db *gorm.DB, ownerID string, memberIDs ...string) *model.Conversation {
	t.Helper()
	cv := &model.Conversation{
		Discriminator:  model.DiscriminatorGroup,
		GroupName:      "testers",
		OwnerID:        ownerID,
		AESKey:         "0123456789abcdef0123456789abcdef",
		MaxLiveSeconds: model.DefaultMaxLiveSeconds,
	}
	for _, id := range append([]string{ownerID}, memberIDs...) {
		cv.Users = append(cv.Users, model.UserConversationRelation{UserID: id})
	}
	if err := db.Create(cv).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}
	return cv
}

func seedMessage(t *testing.T, db *gorm.DB, convID uint64, senderID, id string, sendTime time.Time) *model.Message {
	t.Helper()
	m := &model.Message{
		ID:             id,
		ConversationID: convID,
		SenderID:       senderID,
		Content:        "hello",
		SendTime:       sendTime,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed message %s: %v", id, err)
	}
	return m
}

func reload(t *testing.T, repo repository.ConversationRepository, convID uint64) *model.Conversation {
	t.Helper()
	cv, err := repo.FindByID(context.Background(), convID)
	if err != nil {
		t.Fatalf("reload conversation %d: %v", convID, err)
	}
	return cv
}

// fakePusher records dispatched events so services can be tested without
// real transports.
type fakePusher struct {
	newMessages       []*model.Message
	retentionUpdates  []int
	newMembers        []string
	membersLeft       []string
	dissolved         []uint64
	friendRequests    []uint64
	friendsAccepted   []string
	wereDeletedCalled []string
}

func (f *fakePusher) NewMessageEvent(_ context.Context, _ *model.Conversation, msg *model.Message) {
	f.newMessages = append(f.newMessages, msg)
}

func (f *fakePusher) RetentionUpdatedEvent(_ context.Context, _ *model.Conversation, newSeconds int) {
	f.retentionUpdates = append(f.retentionUpdates, newSeconds)
}

func (f *fakePusher) NewMemberEvent(_ context.Context, _ *model.Conversation, newMember *model.User) {
	f.newMembers = append(f.newMembers, newMember.ID)
}

func (f *fakePusher) MemberLeftEvent(_ context.Context, _ *model.Conversation, left *model.User) {
	f.membersLeft = append(f.membersLeft, left.ID)
}

func (f *fakePusher) DissolvedEvent(_ context.Context, conv *model.Conversation) {
	f.dissolved = append(f.dissolved, conv.ID)
}

func (f *fakePusher) NewFriendRequestEvent(_ context.Context, _, _ *model.User, requestID uint64) {
	f.friendRequests = append(f.friendRequests, requestID)
}

func (f *fakePusher) FriendAcceptedEvent(_ context.Context, target, _ *model.User) {
	f.friendsAccepted = append(f.friendsAccepted, target.ID)
}

func (f *fakePusher) WereDeletedEvent(_ context.Context, target, _ *model.User) {
	f.wereDeletedCalled = append(f.wereDeletedCalled, target.ID)
}
