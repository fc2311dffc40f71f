package service

import (
	"context"
	"errors"
	"testing"

	"github.com/LXKing/Kahla/internal/repository"
)

func TestChannelLifecycle(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")

	users := repository.NewUserRepository(db)
	svc := NewUserService(users)
	ctx := context.Background()

	channel, err := svc.InitChannel(ctx, "alice")
	if err != nil {
		t.Fatalf("InitChannel: %v", err)
	}
	if channel == -1 {
		t.Fatal("allocated the disconnected sentinel as a channel id")
	}
	u, err := users.FindByID(ctx, "alice")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if u.CurrentChannel != channel || !u.Connected() {
		t.Fatalf("current channel = %d, want %d", u.CurrentChannel, channel)
	}

	// Reconnecting replaces the channel.
	second, err := svc.InitChannel(ctx, "alice")
	if err != nil {
		t.Fatalf("second InitChannel: %v", err)
	}
	u, err = users.FindByID(ctx, "alice")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.CurrentChannel != second {
		t.Fatalf("current channel = %d, want %d", u.CurrentChannel, second)
	}

	if err := svc.DropChannel(ctx, "alice"); err != nil {
		t.Fatalf("DropChannel: %v", err)
	}
	u, err = users.FindByID(ctx, "alice")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.Connected() {
		t.Fatalf("still connected on channel %d", u.CurrentChannel)
	}
}

func TestDeviceRegistration(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")

	users := repository.NewUserRepository(db)
	svc := NewUserService(users)
	ctx := context.Background()

	if _, err := svc.RegisterDevice(ctx, "alice", "phone", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty token got %v, want ErrInvalidInput", err)
	}

	d, err := svc.RegisterDevice(ctx, "alice", "phone", "fcm-token")
	if err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	u, err := users.FindByID(ctx, "alice")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if len(u.HisDevices) != 1 || u.HisDevices[0].PushToken != "fcm-token" {
		t.Fatalf("devices = %+v, want one with the token", u.HisDevices)
	}

	if err := svc.RemoveDevice(ctx, "alice", d.ID); err != nil {
		t.Fatalf("RemoveDevice: %v", err)
	}
	u, err = users.FindByID(ctx, "alice")
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if len(u.HisDevices) != 0 {
		t.Fatalf("device survived removal: %+v", u.HisDevices)
	}
}

func TestSetEmailNotification(t *testing.T) {
	db := testDB(t)
	seedUser(t, db, "alice")

	users := repository.NewUserRepository(db)
	svc := NewUserService(users)
	ctx := context.Background()

	if err := svc.SetEmailNotification(ctx, "alice", false); err != nil {
		t.Fatalf("SetEmailNotification: %v", err)
	}
	u, err := svc.Me(ctx, "alice")
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if u.EnableEmailNotification {
		t.Fatal("opt-out not persisted")
	}

	if _, err := svc.Me(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user got %v, want ErrNotFound", err)
	}
}
