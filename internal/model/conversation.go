package model

import "time"

const (
	DiscriminatorPrivate = "PrivateConversation"
	DiscriminatorGroup   = "GroupConversation"
)

// DefaultMaxLiveSeconds keeps messages for one week unless the
// conversation configures its own lifetime.
const DefaultMaxLiveSeconds = 60 * 60 * 24 * 7

// Conversation is either a private chat (exactly two members) or a group.
// The variant is carried in Discriminator; group-only fields stay zero for
// private conversations.
type Conversation struct {
	ID             uint64                     `gorm:"primaryKey;autoIncrement" json:"id"`
	Discriminator  string                     `gorm:"size:32;not null" json:"discriminator"`
	GroupName      string                     `gorm:"size:128" json:"groupName,omitempty"`
	OwnerID        string                     `gorm:"column:owner_id;size:128;index" json:"ownerId,omitempty"`
	AESKey         string                     `gorm:"column:aes_key;size:64" json:"aesKey"`
	MaxLiveSeconds int                        `gorm:"column:max_live_seconds;default:604800" json:"maxLiveSeconds"`
	Users          []UserConversationRelation `gorm:"foreignKey:ConversationID" json:"-"`
	CreatedAt      time.Time                  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time                  `gorm:"autoUpdateTime" json:"-"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) IsGroup() bool {
	return c.Discriminator == DiscriminatorGroup
}

// HasUser reports membership based on the loaded relation set.
func (c *Conversation) HasUser(userID string) bool {
	return c.RelationOf(userID) != nil
}

// RelationOf returns the member's relation record, or nil for non-members.
func (c *Conversation) RelationOf(userID string) *UserConversationRelation {
	for i := range c.Users {
		if c.Users[i].UserID == userID {
			return &c.Users[i]
		}
	}
	return nil
}

// DisplayNameFor renders the conversation title as seen by one member:
// the group name, or the other side's nick name in a private chat.
func (c *Conversation) DisplayNameFor(userID string) string {
	if c.IsGroup() {
		return c.GroupName
	}
	for i := range c.Users {
		if c.Users[i].UserID != userID {
			return c.Users[i].User.NickName
		}
	}
	return ""
}
