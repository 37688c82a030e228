package models

import "time"

// Device is a registered mobile device. We keep the bare minimum needed to
// deliver notifications: no emails are stored, only the verification flag.
type Device struct {
	ID            uint      `gorm:"column:id;primaryKey" json:"id"`
	DeviceID      string    `gorm:"column:device_id;uniqueIndex;not null" json:"device_id"`
	EmailVerified bool      `gorm:"column:email_verified;not null;default:false" json:"email_verified"`
	PushToken     *string   `gorm:"column:push_token" json:"push_token"`
	IsPushEnabled bool      `gorm:"column:is_push_enabled;not null;default:false" json:"is_push_enabled"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	LastSeenAt    time.Time `gorm:"column:last_seen_at;autoUpdateTime" json:"last_seen_at"`
}

func (Device) TableName() string { return "devices" }
