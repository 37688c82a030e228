package models

import "time"

type TapsSighting struct {
	ID                 uint      `gorm:"column:id;primaryKey" json:"id"`
	ParkingLotID       uint      `gorm:"column:parking_lot_id;index;not null" json:"parking_lot_id"`
	ReportedByDeviceID *uint     `gorm:"column:reported_by_device_id" json:"reported_by_device_id"`
	ReportedAt         time.Time `gorm:"column:reported_at;index;autoCreateTime" json:"reported_at"`
	Notes              *string   `gorm:"column:notes" json:"notes"`
}

func (TapsSighting) TableName() string { return "taps_sightings" }
