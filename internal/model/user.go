package model

import "time"

type User struct {
	ID                      string    `gorm:"primaryKey;size:128" json:"id"`
	Email                   string    `gorm:"size:255;index" json:"email"`
	NickName                string    `gorm:"size:64" json:"nickName"`
	CurrentChannel          int64     `gorm:"column:current_channel;default:-1" json:"-"`
	EnableEmailNotification bool      `gorm:"column:enable_email_notification;default:true" json:"enableEmailNotification"`
	LastEmailHimTime        time.Time `gorm:"column:last_email_him_time" json:"-"`
	HisDevices              []Device  `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt               time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt               time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Connected reports whether the user holds an active real-time channel.
func (u *User) Connected() bool {
	return u.CurrentChannel != -1
}
