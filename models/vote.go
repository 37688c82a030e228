package models

import "time"

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Vote records a device's confirmation (or dispute) of a sighting.
// One vote per device per sighting.
type Vote struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	DeviceID   uint      `gorm:"column:device_id;not null;uniqueIndex:idx_device_sighting" json:"device_id"`
	SightingID uint      `gorm:"column:sighting_id;not null;uniqueIndex:idx_device_sighting" json:"sighting_id"`
	VoteType   VoteType  `gorm:"column:vote_type;not null" json:"vote_type"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Vote) TableName() string { return "votes" }
