package model

import "time"

// Request is a pending friendship request. Completed requests stay around
// for history; the digest only counts incomplete incoming ones.
type Request struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatorID  string    `gorm:"column:creator_id;size:128;index" json:"creatorId"`
	TargetID   string    `gorm:"column:target_id;size:128;index" json:"targetId"`
	Completed  bool      `gorm:"default:false" json:"completed"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"createTime"`
}

func (Request) TableName() string {
	return "requests"
}
