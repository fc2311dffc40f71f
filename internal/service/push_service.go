package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/LXKing/Kahla/internal/event"
	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/push"
)

// Pusher fans an event out to its recipients. Every method is best-effort:
// delivery failures are logged and swallowed, never returned, because the
// triggering operation already succeeded once persistence completed.
type Pusher interface {
	NewMessageEvent(ctx context.Context, conv *model.Conversation, msg *model.Message)
	RetentionUpdatedEvent(ctx context.Context, conv *model.Conversation, newSeconds int)
	NewMemberEvent(ctx context.Context, conv *model.Conversation, newMember *model.User)
	MemberLeftEvent(ctx context.Context, conv *model.Conversation, left *model.User)
	DissolvedEvent(ctx context.Context, conv *model.Conversation)
	NewFriendRequestEvent(ctx context.Context, target, requester *model.User, requestID uint64)
	FriendAcceptedEvent(ctx context.Context, target, accepter *model.User)
	WereDeletedEvent(ctx context.Context, target, trigger *model.User)
}

type pushService struct {
	realtime push.RealtimeChannel
	devices  push.DevicePush
	timeout  time.Duration
	logger   *slog.Logger
}

func NewPushService(realtime push.RealtimeChannel, devices push.DevicePush, timeout time.Duration) Pusher {
	return &pushService{
		realtime: realtime,
		devices:  devices,
		timeout:  timeout,
		logger:   slog.Default(),
	}
}

// shouldAlert is the single recipient-policy decision reused by every
// event kind that gates device pushes: the sender never alerts themselves,
// a mention overrides a mute, a mute suppresses the rest.
func shouldAlert(selfID, senderID string, mentioned, muted bool) bool {
	return selfID != senderID && (mentioned || !muted)
}

// NewMessageEvent notifies every member of the conversation. The real-time
// channel is attempted for every connected member regardless of alerting,
// carrying a muted flag so the client can stay quiet locally; the device
// channel fires only when the recipient should be alerted.
func (s *pushService) NewMessageEvent(ctx context.Context, conv *model.Conversation, msg *model.Message) {
	var wg sync.WaitGroup
	for i := range conv.Users {
		rel := &conv.Users[i]
		mentioned := msg.Mentions(rel.UserID)
		alert := shouldAlert(rel.UserID, msg.SenderID, mentioned, rel.Muted)
		payload, err := json.Marshal(event.NewMessage{
			Type:      event.TypeNewMessage,
			AESKey:    conv.AESKey,
			Muted:     !alert,
			Mentioned: mentioned,
			Message:   msg,
		})
		if err != nil {
			s.logger.Error("marshal new message event", "error", err)
			continue
		}
		s.pushToUser(ctx, &wg, &rel.User, payload, alert)
	}
	wg.Wait()
}

func (s *pushService) RetentionUpdatedEvent(ctx context.Context, conv *model.Conversation, newSeconds int) {
	s.broadcast(ctx, conv, event.RetentionUpdated{
		Type:               event.TypeRetentionUpdated,
		NewLifetimeSeconds: newSeconds,
		ConversationID:     conv.ID,
	})
}

func (s *pushService) NewMemberEvent(ctx context.Context, conv *model.Conversation, newMember *model.User) {
	s.broadcast(ctx, conv, event.NewMember{
		Type:           event.TypeNewMember,
		NewMember:      newMember,
		ConversationID: conv.ID,
	})
}

func (s *pushService) MemberLeftEvent(ctx context.Context, conv *model.Conversation, left *model.User) {
	s.broadcast(ctx, conv, event.MemberLeft{
		Type:           event.TypeMemberLeft,
		LeftUser:       left,
		ConversationID: conv.ID,
	})
}

func (s *pushService) DissolvedEvent(ctx context.Context, conv *model.Conversation) {
	s.broadcast(ctx, conv, event.Dissolved{
		Type:           event.TypeDissolved,
		ConversationID: conv.ID,
	})
}

func (s *pushService) NewFriendRequestEvent(ctx context.Context, target, requester *model.User, requestID uint64) {
	s.single(ctx, target, event.NewFriendRequest{
		Type:        event.TypeNewFriendRequest,
		RequesterID: requester.ID,
		Requester:   requester,
		RequestID:   requestID,
	})
}

func (s *pushService) FriendAcceptedEvent(ctx context.Context, target, accepter *model.User) {
	s.single(ctx, target, event.FriendAccepted{
		Type:   event.TypeFriendAccepted,
		Target: accepter,
	})
}

func (s *pushService) WereDeletedEvent(ctx context.Context, target, trigger *model.User) {
	s.single(ctx, target, event.WereDeleted{
		Type:    event.TypeWereDeleted,
		Trigger: trigger,
	})
}

// broadcast delivers one payload to every member over both channels with
// no alert gating.
func (s *pushService) broadcast(ctx context.Context, conv *model.Conversation, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("marshal broadcast event", "error", err)
		return
	}
	var wg sync.WaitGroup
	for i := range conv.Users {
		s.pushToUser(ctx, &wg, &conv.Users[i].User, payload, true)
	}
	wg.Wait()
}

func (s *pushService) single(ctx context.Context, target *model.User, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("marshal event", "error", err)
		return
	}
	var wg sync.WaitGroup
	s.pushToUser(ctx, &wg, target, payload, true)
	wg.Wait()
}

// pushToUser launches the two channel deliveries for one recipient. They
// run independently: a failure or stall on one channel never blocks the
// other, and one recipient never blocks another. Each attempt is bounded
// by the push timeout.
func (s *pushService) pushToUser(ctx context.Context, wg *sync.WaitGroup, u *model.User, payload []byte, alert bool) {
	if s.realtime != nil && u.Connected() {
		wg.Add(1)
		go func(channel int64) {
			defer wg.Done()
			pushCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := s.realtime.Push(pushCtx, channel, payload); err != nil {
				s.logger.Warn("realtime push failed", "userId", u.ID, "channel", channel, "error", err)
			}
		}(u.CurrentChannel)
	}
	if s.devices != nil && alert && len(u.HisDevices) > 0 {
		wg.Add(1)
		go func(devices []model.Device, email string) {
			defer wg.Done()
			pushCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := s.devices.Push(pushCtx, devices, email, payload); err != nil {
				s.logger.Warn("device push failed", "userId", u.ID, "devices", len(devices), "error", err)
			}
		}(u.HisDevices, u.Email)
	}
}
