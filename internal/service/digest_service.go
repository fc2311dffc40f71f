package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/push"
	"github.com/LXKing/Kahla/internal/repository"
)

// maxItemizedConversations caps the per-conversation lines in one digest
// email. Unread counts past the cap still contribute to the total.
const maxItemizedConversations = 50

// DigestService periodically emails users a summary of what they missed:
// unread counts per conversation plus pending friend requests. The poll
// interval bounds latency; the cooldown bounds how often any one user is
// emailed.
type DigestService struct {
	users      repository.UserRepository
	convRepo   repository.ConversationRepository
	requests   repository.RequestRepository
	unread     UnreadService
	email      push.EmailTransport
	appDomain  string
	cooldown   time.Duration
	interval   time.Duration
	startDelay time.Duration
	logger     *slog.Logger
}

func NewDigestService(
	users repository.UserRepository,
	convRepo repository.ConversationRepository,
	requests repository.RequestRepository,
	unread UnreadService,
	email push.EmailTransport,
	appDomain string,
	cooldown, interval, startDelay time.Duration,
) *DigestService {
	return &DigestService{
		users:      users,
		convRepo:   convRepo,
		requests:   requests,
		unread:     unread,
		email:      email,
		appDomain:  appDomain,
		cooldown:   cooldown,
		interval:   interval,
		startDelay: startDelay,
		logger:     slog.Default(),
	}
}

// Start runs the digest loop until the context is cancelled.
func (s *DigestService) Start(ctx context.Context) {
	go func() {
		s.logger.Info("email digest service starting", "interval", s.interval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.startDelay):
		}
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			s.RunOnce(ctx)
			select {
			case <-ctx.Done():
				s.logger.Info("email digest service stopping")
				return
			case <-ticker.C:
			}
		}
	}()
}

// RunOnce processes every eligible user independently. One user's failure
// never aborts the batch, and the cooldown only advances after a
// successful send so failed users are retried on the next eligible run.
func (s *DigestService) RunOnce(ctx context.Context) {
	now := time.Now().UTC()
	users, err := s.users.DigestCandidates(ctx, now.Add(-s.cooldown))
	if err != nil {
		s.logger.Error("list digest candidates failed", "error", err)
		return
	}
	for i := range users {
		user := &users[i]
		body, err := s.BuildEmail(ctx, user)
		if err != nil {
			s.logger.Warn("build digest failed", "userId", user.ID, "error", err)
			continue
		}
		if body == "" {
			continue
		}
		if err := s.email.Send(ctx, user.Email, "New notifications", body); err != nil {
			s.logger.Warn("digest email failed", "userId", user.ID, "error", err)
			continue
		}
		if err := s.users.SetLastEmailTime(ctx, user.ID, now); err != nil {
			s.logger.Error("record digest time failed", "userId", user.ID, "error", err)
		}
	}
}

// BuildEmail renders the digest body, or "" when there is nothing to
// report. Muted group conversations are skipped entirely.
func (s *DigestService) BuildEmail(ctx context.Context, user *model.User) (string, error) {
	conversations, err := s.convRepo.FindByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	var (
		totalUnread     int64
		inConversations int
		items           strings.Builder
	)
	for i := range conversations {
		cv := &conversations[i]
		if cv.IsGroup() {
			if rel := cv.RelationOf(user.ID); rel != nil && rel.Muted {
				continue
			}
		}
		unread, err := s.unread.UnreadCount(ctx, cv, user.ID)
		if err != nil {
			return "", err
		}
		if unread <= 0 {
			continue
		}
		totalUnread += unread
		inConversations++
		if inConversations > maxItemizedConversations {
			continue
		}
		if inConversations == maxItemizedConversations {
			items.WriteString("<li>Some conversations haven't been displayed because there are too many items.</li>\n")
			continue
		}
		kind := "friend"
		if cv.IsGroup() {
			kind = "group"
		}
		fmt.Fprintf(&items, "<li>%d unread message(s) in %s <a href=\"%s/talking/%d\">%s</a>.</li>\n",
			unread, kind, s.appDomain, cv.ID, cv.DisplayNameFor(user.ID))
	}

	pendingRequests, err := s.requests.CountPending(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if inConversations == 0 && pendingRequests == 0 {
		return "", nil
	}

	var msg strings.Builder
	if inConversations > 0 {
		fmt.Fprintf(&msg, "<h4>You have %d unread message(s) in %d conversation(s) from your friends!</h4>\n<ul>\n", totalUnread, inConversations)
		msg.WriteString(items.String())
		msg.WriteString("</ul>\n")
	}
	if pendingRequests > 0 {
		fmt.Fprintf(&msg, "<h4>You have %d pending friend request(s).</h4>\n", pendingRequests)
	}
	fmt.Fprintf(&msg, "Click to <a href='%s'>open the app now</a>.", s.appDomain)
	return msg.String(), nil
}
