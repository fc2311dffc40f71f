package model

import "time"

// UserConversationRelation links a member to a conversation and carries the
// member's per-conversation state: the mute flag and the last-read
// timestamp. A nil ReadTimeStamp means the member never read anything.
type UserConversationRelation struct {
	ID             uint64     `gorm:"primaryKey;autoIncrement" json:"-"`
	ConversationID uint64     `gorm:"column:conversation_id;uniqueIndex:uniq_conv_user" json:"conversationId"`
	UserID         string     `gorm:"column:user_id;size:128;uniqueIndex:uniq_conv_user" json:"userId"`
	User           User       `gorm:"foreignKey:UserID" json:"user"`
	Muted          bool       `gorm:"default:false" json:"muted"`
	ReadTimeStamp  *time.Time `gorm:"column:read_time_stamp" json:"readTimeStamp"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

func (UserConversationRelation) TableName() string {
	return "user_conversation_relations"
}
