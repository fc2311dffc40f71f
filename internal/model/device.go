package model

import "time"

// Device is one push registration of a user. A user may carry several
// devices; a device push call targets all of them at once.
type Device struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"column:user_id;size:128;index" json:"userId"`
	Name      string    `gorm:"size:128" json:"name"`
	PushToken string    `gorm:"column:push_token;size:512;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Device) TableName() string {
	return "devices"
}
