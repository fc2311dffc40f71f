// Package event defines the payloads dispatched to clients. Every payload
// carries a Type tag and serializes identically over the real-time channel
// and the device-push channel.
package event

import "github.com/LXKing/Kahla/internal/model"

type Type int

const (
	TypeNewMessage Type = iota
	TypeNewFriendRequest
	TypeWereDeleted
	TypeFriendAccepted
	TypeRetentionUpdated
	TypeNewMember
	TypeMemberLeft
	TypeDissolved
)

type NewMessage struct {
	Type      Type           `json:"type"`
	AESKey    string         `json:"aesKey"`
	Muted     bool           `json:"muted"`
	Mentioned bool           `json:"mentioned"`
	Message   *model.Message `json:"message"`
}

type NewFriendRequest struct {
	Type        Type        `json:"type"`
	RequesterID string      `json:"requesterId"`
	Requester   *model.User `json:"requester"`
	RequestID   uint64      `json:"requestId"`
}

type FriendAccepted struct {
	Type   Type        `json:"type"`
	Target *model.User `json:"target"`
}

type WereDeleted struct {
	Type    Type        `json:"type"`
	Trigger *model.User `json:"trigger"`
}

type RetentionUpdated struct {
	Type               Type   `json:"type"`
	NewLifetimeSeconds int    `json:"newLifetimeSeconds"`
	ConversationID     uint64 `json:"conversationId"`
}

type NewMember struct {
	Type           Type        `json:"type"`
	NewMember      *model.User `json:"newMember"`
	ConversationID uint64      `json:"conversationId"`
}

type MemberLeft struct {
	Type           Type        `json:"type"`
	LeftUser       *model.User `json:"leftUser"`
	ConversationID uint64      `json:"conversationId"`
}

type Dissolved struct {
	Type           Type   `json:"type"`
	ConversationID uint64 `json:"conversationId"`
}
