package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/LXKing/Kahla/internal/model"
)

// FCMPush sends device notifications through Firebase Cloud Messaging.
type FCMPush struct {
	client *messaging.Client
}

func NewFCMPush(ctx context.Context, projectID string) (*FCMPush, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCMPush{client: client}, nil
}

func (f *FCMPush) Push(ctx context.Context, devices []model.Device, recipientHint string, payload []byte) error {
	if len(devices) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.PushToken)
	}
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data: map[string]string{
			"payload": string(payload),
		},
	}
	resp, err := f.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return err
	}
	if resp.SuccessCount == 0 {
		return fmt.Errorf("fcm push to %s: all %d sends failed", recipientHint, resp.FailureCount)
	}
	return nil
}
