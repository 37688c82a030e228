package models

import "time"

type NotificationType string

const (
	NotificationTapsSpotted      NotificationType = "taps_spotted"
	NotificationCheckoutReminder NotificationType = "checkout_reminder"
)

// Notification is stored for in-app polling; push delivery is best-effort
// and the row is the source of truth either way.
type Notification struct {
	ID               uint             `gorm:"column:id;primaryKey" json:"id"`
	DeviceID         uint             `gorm:"column:device_id;index;not null" json:"device_id"`
	NotificationType NotificationType `gorm:"column:notification_type;not null" json:"notification_type"`
	Title            string           `gorm:"column:title;not null" json:"title"`
	Message          string           `gorm:"column:message;not null" json:"message"`
	ParkingLotID     *uint            `gorm:"column:parking_lot_id" json:"parking_lot_id"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ReadAt           *time.Time       `gorm:"column:read_at" json:"read_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n Notification) IsRead() bool { return n.ReadAt != nil }
