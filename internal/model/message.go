package model

import "time"

// Message is immutable once written; only retention truncation removes it.
// Seq is the insertion-order tie-breaker for messages sharing a SendTime.
// ID is the client-supplied token that deduplicates resends.
type Message struct {
	Seq            uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	ID             string    `gorm:"size:36;uniqueIndex" json:"id"`
	ConversationID uint64    `gorm:"column:conversation_id;index" json:"conversationId"`
	SenderID       string    `gorm:"column:sender_id;size:128;index" json:"senderId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	SendTime       time.Time `gorm:"column:send_time;index" json:"sendTime"`
	Ats            []At      `gorm:"foreignKey:MessageSeq;constraint:OnDelete:CASCADE" json:"ats"`

	// Read is derived per caller when listing; it is never stored.
	Read bool `gorm:"-" json:"read"`
}

func (Message) TableName() string {
	return "messages"
}

// Mentions reports whether the message carries an At for the user.
func (m *Message) Mentions(userID string) bool {
	for _, at := range m.Ats {
		if at.TargetUserID == userID {
			return true
		}
	}
	return false
}

// At is a mention of one conversation member inside a message.
type At struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	MessageSeq   uint64 `gorm:"column:message_seq;index" json:"-"`
	TargetUserID string `gorm:"column:target_user_id;size:128" json:"targetUserId"`
}

func (At) TableName() string {
	return "ats"
}
