// Package push holds the outbound transport ports: the real-time channel,
// the device-push channel, email, and the attachment store. Adapters are
// thin; delivery policy lives in the services.
package push

import (
	"context"

	"github.com/LXKing/Kahla/internal/model"
)

// NoChannel is the channel id of a user with no live connection.
const NoChannel int64 = -1

// RealtimeChannel delivers a payload to one live client channel.
type RealtimeChannel interface {
	Push(ctx context.Context, channelID int64, payload []byte) error
}

// DevicePush delivers a payload to every registered device of a recipient.
// Failures are reported per call, not per device.
type DevicePush interface {
	Push(ctx context.Context, devices []model.Device, recipientHint string, payload []byte) error
}

// EmailTransport sends one HTML email.
type EmailTransport interface {
	Send(ctx context.Context, address, subject, htmlBody string) error
}

// Folder is one subdirectory of a conversation's attachment root.
type Folder struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// AttachmentStore lists the files stored under a conversation-scoped root.
type AttachmentStore interface {
	List(ctx context.Context, root string) ([]Folder, error)
}
