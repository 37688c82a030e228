package models

import "time"

// ParkingSession spans from check-in to check-out. A nil CheckedOutAt means
// the device is still parked and should receive TAPS alerts for its lot.
type ParkingSession struct {
	ID           uint       `gorm:"column:id;primaryKey" json:"id"`
	DeviceID     uint       `gorm:"column:device_id;index;not null" json:"device_id"`
	ParkingLotID uint       `gorm:"column:parking_lot_id;index;not null" json:"parking_lot_id"`
	CheckedInAt  time.Time  `gorm:"column:checked_in_at;autoCreateTime" json:"checked_in_at"`
	CheckedOutAt *time.Time `gorm:"column:checked_out_at" json:"checked_out_at"`
	ReminderSent bool       `gorm:"column:reminder_sent;not null;default:false" json:"reminder_sent"`
}

func (ParkingSession) TableName() string { return "parking_sessions" }

func (s ParkingSession) IsActive() bool { return s.CheckedOutAt == nil }
