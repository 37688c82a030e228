package models

type ParkingLot struct {
	ID        uint     `gorm:"column:id;primaryKey" json:"id"`
	Name      string   `gorm:"column:name;uniqueIndex;not null" json:"name"`
	Code      string   `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Latitude  *float64 `gorm:"column:latitude" json:"latitude"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude"`
	IsActive  bool     `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

func (ParkingLot) TableName() string { return "parking_lots" }
