package services

import (
	"context"
	"errors"
	"time"

	"taps-alert-api/models"
	"taps-alert-api/prediction"

	"gorm.io/gorm"
)

// SightingStore backs the prediction engine with gorm queries. It is the
// concrete implementation of prediction.Store.
type SightingStore struct {
	db *gorm.DB
}

func NewSightingStore(db *gorm.DB) *SightingStore {
	return &SightingStore{db: db}
}

func (s *SightingStore) FindLot(ctx context.Context, lotID uint) (*prediction.Lot, error) {
	var lot models.ParkingLot
	if err := s.db.WithContext(ctx).First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prediction.ErrLotNotFound
		}
		return nil, err
	}
	return &prediction.Lot{ID: lot.ID, Name: lot.Name, Code: lot.Code}, nil
}

func (s *SightingStore) CountSightings(ctx context.Context, lotID uint, since time.Time, until *time.Time, weekday *time.Weekday) (int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.TapsSighting{}).
		Where("parking_lot_id = ?", lotID).
		Where("reported_at >= ?", since)

	if until != nil {
		query = query.Where("reported_at < ?", *until)
	}
	if weekday != nil {
		// Postgres DOW is 0=Sunday, matching time.Weekday.
		query = query.Where("EXTRACT(DOW FROM reported_at) = ?", int(*weekday))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
