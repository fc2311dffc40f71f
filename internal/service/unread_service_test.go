package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LXKing/Kahla/internal/repository"
	"github.com/google/uuid"
)

func TestUnreadCount(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	cv := seedGroup(t, db, "alice", "bob")
	if err := db.Model(cv).Update("max_live_seconds", 3600).Error; err != nil {
		t.Fatalf("set lifetime: %v", err)
	}
	now := time.Now().UTC()
	seedMessage(t, db, cv.ID, "alice", uuid.NewString(), now.Add(-2*time.Hour))
	seedMessage(t, db, cv.ID, "alice", uuid.NewString(), now.Add(-10*time.Minute))
	seedMessage(t, db, cv.ID, "alice", uuid.NewString(), now.Add(-time.Minute))

	convRepo := repository.NewConversationRepository(db)
	relRepo := repository.NewRelationRepository(db)
	svc := NewUnreadService(convRepo, relRepo)
	ctx := context.Background()

	// Never read anything: both retained messages count, the expired one
	// does not.
	count, err := svc.UnreadCount(ctx, reload(t, convRepo, cv.ID), "bob")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("unread = %d, want 2", count)
	}

	if err := svc.MarkRead(ctx, cv.ID, "bob", now.Add(-5*time.Minute)); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, err = svc.UnreadCount(ctx, reload(t, convRepo, cv.ID), "bob")
	if err != nil {
		t.Fatalf("UnreadCount after partial read: %v", err)
	}
	if count != 1 {
		t.Fatalf("unread = %d, want 1", count)
	}

	if err := svc.MarkRead(ctx, cv.ID, "bob", now); err != nil {
		t.Fatalf("MarkRead to now: %v", err)
	}
	count, err = svc.UnreadCount(ctx, reload(t, convRepo, cv.ID), "bob")
	if err != nil {
		t.Fatalf("UnreadCount after full read: %v", err)
	}
	if count != 0 {
		t.Fatalf("unread = %d, want 0", count)
	}
}

func TestUnreadCountNonMember(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	cv := seedGroup(t, db, "alice", "bob")

	convRepo := repository.NewConversationRepository(db)
	svc := NewUnreadService(convRepo, repository.NewRelationRepository(db))
	if _, err := svc.UnreadCount(context.Background(), reload(t, convRepo, cv.ID), "mallory"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}

func TestMarkReadIsMonotonic(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	cv := seedGroup(t, db, "alice", "bob")

	relRepo := repository.NewRelationRepository(db)
	svc := NewUnreadService(repository.NewConversationRepository(db), relRepo)
	ctx := context.Background()

	later := time.Now().UTC()
	earlier := later.Add(-time.Hour)
	if err := svc.MarkRead(ctx, cv.ID, "bob", later); err != nil {
		t.Fatalf("MarkRead later: %v", err)
	}
	if err := svc.MarkRead(ctx, cv.ID, "bob", earlier); err != nil {
		t.Fatalf("MarkRead earlier: %v", err)
	}
	rel, err := relRepo.Find(ctx, cv.ID, "bob")
	if err != nil {
		t.Fatalf("find relation: %v", err)
	}
	if rel.ReadTimeStamp == nil || rel.ReadTimeStamp.Before(later.Add(-time.Second)) {
		t.Fatalf("marker regressed to %v", rel.ReadTimeStamp)
	}
}

func TestMarkReadUnknownRelation(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")
	seedUser(t, db, "bob")
	cv := seedGroup(t, db, "alice", "bob")

	svc := NewUnreadService(repository.NewConversationRepository(db), repository.NewRelationRepository(db))
	if err := svc.MarkRead(context.Background(), cv.ID, "mallory", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
