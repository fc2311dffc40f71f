package service

import (
	"context"
	"errors"
	"testing"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/repository"
	"gorm.io/gorm"
)

func newFriendshipFixture(db *gorm.DB, pusher Pusher) FriendshipService {
	return NewFriendshipService(
		repository.NewUserRepository(db),
		repository.NewRequestRepository(db),
		repository.NewConversationRepository(db),
		pusher,
	)
}

func TestCreateRequest(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	pusher := &fakePusher{}
	svc := newFriendshipFixture(db, pusher)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if req.CreatorID != "alice" || req.TargetID != "bob" || req.Completed {
		t.Fatalf("unexpected request %+v", req)
	}
	if len(pusher.friendRequests) != 1 || pusher.friendRequests[0] != req.ID {
		t.Fatalf("friend request events = %v, want [%d]", pusher.friendRequests, req.ID)
	}

	tests := []struct {
		name    string
		caller  string
		target  string
		wantErr error
	}{
		{"self request", "alice", "alice", ErrInvalidInput},
		{"unknown target", "alice", "nobody", ErrNotFound},
		{"duplicate pending", "alice", "bob", ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateRequest(ctx, tt.caller, tt.target); !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompleteRequestAccept(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	pusher := &fakePusher{}
	svc := newFriendshipFixture(db, pusher)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	if _, err := svc.CompleteRequest(ctx, "alice", req.ID, true); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("creator completing own request got %v, want ErrUnauthorized", err)
	}

	cv, err := svc.CompleteRequest(ctx, "bob", req.ID, true)
	if err != nil {
		t.Fatalf("CompleteRequest: %v", err)
	}
	if cv == nil || cv.IsGroup() {
		t.Fatalf("accept did not create a private conversation: %+v", cv)
	}
	if cv.AESKey == "" {
		t.Fatal("private conversation created without an encryption key")
	}
	if len(pusher.friendsAccepted) != 1 || pusher.friendsAccepted[0] != "alice" {
		t.Fatalf("accepted events = %v, want [alice]", pusher.friendsAccepted)
	}

	found, err := repository.NewConversationRepository(db).FindPrivateBetween(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("FindPrivateBetween: %v", err)
	}
	if found.ID != cv.ID {
		t.Fatalf("lookup returned conversation %d, want %d", found.ID, cv.ID)
	}

	if _, err := svc.CompleteRequest(ctx, "bob", req.ID, true); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("re-completing got %v, want ErrInvalidInput", err)
	}

	// Friends can not request each other again.
	if _, err := svc.CreateRequest(ctx, "bob", "alice"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("request between friends got %v, want ErrInvalidInput", err)
	}
}

func TestCompleteRequestDecline(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	svc := newFriendshipFixture(db, &fakePusher{})
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	cv, err := svc.CompleteRequest(ctx, "bob", req.ID, false)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if cv != nil {
		t.Fatalf("decline created a conversation: %+v", cv)
	}
	if _, err := repository.NewConversationRepository(db).FindPrivateBetween(ctx, "alice", "bob"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("decline left a conversation behind: %v", err)
	}

	// A declined request is completed; a new one may follow.
	if _, err := svc.CreateRequest(ctx, "alice", "bob"); err != nil {
		t.Fatalf("re-request after decline: %v", err)
	}
}

func TestRemoveFriend(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")

	pusher := &fakePusher{}
	svc := newFriendshipFixture(db, pusher)
	ctx := context.Background()

	req, err := svc.CreateRequest(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := svc.CompleteRequest(ctx, "bob", req.ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := svc.RemoveFriend(ctx, "alice", "bob"); err != nil {
		t.Fatalf("RemoveFriend: %v", err)
	}
	if len(pusher.wereDeletedCalled) != 1 || pusher.wereDeletedCalled[0] != "bob" {
		t.Fatalf("were-deleted events = %v, want [bob]", pusher.wereDeletedCalled)
	}
	if _, err := repository.NewConversationRepository(db).FindPrivateBetween(ctx, "alice", "bob"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("conversation survived the removal: %v", err)
	}
	var rels int64
	if err := db.Model(&model.UserConversationRelation{}).Count(&rels).Error; err != nil {
		t.Fatalf("count relations: %v", err)
	}
	if rels != 0 {
		t.Fatalf("%d relations survived the removal", rels)
	}

	if err := svc.RemoveFriend(ctx, "alice", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("removing a non-friend got %v, want ErrNotFound", err)
	}
}
