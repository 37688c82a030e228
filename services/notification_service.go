package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"taps-alert-api/metrics"
	"taps-alert-api/models"

	"gorm.io/gorm"
)

// LiveSightingChannel is the redis pub/sub channel carrying fresh sightings
// to websocket clients.
const LiveSightingChannel = "tapsalert:sightings"

// NotificationService writes in-app notifications and fans out TAPS alerts
// to everyone parked at a lot. Push delivery (APNs) is a seam: tokens are
// stored and honored but actual transport lives outside this service.
type NotificationService struct {
	db    *gorm.DB
	cache *CacheService
}

func NewNotificationService(db *gorm.DB, cache *CacheService) *NotificationService {
	return &NotificationService{db: db, cache: cache}
}

func (s *NotificationService) CreateNotification(
	ctx context.Context,
	deviceID uint,
	notificationType models.NotificationType,
	title, message string,
	parkingLotID *uint,
) (*models.Notification, error) {
	notification := models.Notification{
		DeviceID:         deviceID,
		NotificationType: notificationType,
		Title:            title,
		Message:          message,
		ParkingLotID:     parkingLotID,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, err
	}
	metrics.NotificationsCreated.Inc()
	return &notification, nil
}

// NotifyParkedUsers alerts every device with an active session at the lot.
// Returns the number of devices notified.
func (s *NotificationService) NotifyParkedUsers(ctx context.Context, lot models.ParkingLot) (int, error) {
	var sessions []models.ParkingSession
	err := s.db.WithContext(ctx).
		Where("parking_lot_id = ? AND checked_out_at IS NULL", lot.ID).
		Find(&sessions).Error
	if err != nil {
		return 0, err
	}

	title := "TAPS Alert!"
	message := fmt.Sprintf("TAPS has been spotted at %s. Move your vehicle!", lot.Name)
	lotID := lot.ID

	notified := 0
	for _, session := range sessions {
		if _, err := s.CreateNotification(ctx, session.DeviceID, models.NotificationTapsSpotted, title, message, &lotID); err != nil {
			log.Printf("failed to create notification for device %d: %v", session.DeviceID, err)
			continue
		}

		var device models.Device
		if err := s.db.WithContext(ctx).First(&device, session.DeviceID).Error; err == nil {
			if device.IsPushEnabled && device.PushToken != nil {
				// Push transport not wired up; the in-app row above is the
				// polling fallback clients rely on.
				log.Printf("push notification queued for device %d at %s", device.ID, lot.Code)
			}
		}
		notified++
	}
	return notified, nil
}

// SendCheckoutReminder nudges a device that has been parked past the
// reminder window.
func (s *NotificationService) SendCheckoutReminder(ctx context.Context, session models.ParkingSession, lotName string) error {
	title := "Still parked?"
	message := fmt.Sprintf("You've been parked at %s for a while. Don't forget to check out when you leave!", lotName)
	lotID := session.ParkingLotID

	_, err := s.CreateNotification(ctx, session.DeviceID, models.NotificationCheckoutReminder, title, message, &lotID)
	return err
}

// PublishSighting pushes a sighting onto the live channel for websocket
// subscribers. Failures are logged, not surfaced: the live feed is
// best-effort on top of the stored record.
func (s *NotificationService) PublishSighting(ctx context.Context, sighting models.TapsSighting, lot models.ParkingLot) {
	payload := map[string]interface{}{
		"sighting_id":      sighting.ID,
		"parking_lot_id":   lot.ID,
		"parking_lot_name": lot.Name,
		"parking_lot_code": lot.Code,
		"reported_at":      sighting.ReportedAt,
	}
	if err := s.cache.Publish(ctx, LiveSightingChannel, payload); err != nil {
		log.Printf("failed to publish sighting %d: %v", sighting.ID, err)
	}
}

func (s *NotificationService) GetUnread(ctx context.Context, deviceID uint, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND read_at IS NULL", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (s *NotificationService) GetAll(ctx context.Context, deviceID uint, limit, offset int) ([]models.Notification, int64, int64, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, 0, err
	}

	var unread int64
	err = s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("device_id = ? AND read_at IS NULL", deviceID).
		Count(&unread).Error
	if err != nil {
		return nil, 0, 0, err
	}

	var total int64
	err = s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("device_id = ?", deviceID).
		Count(&total).Error
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, unread, total, nil
}

// MarkRead marks the given notifications read, scoped to the device so one
// device cannot acknowledge another's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, deviceID uint, notificationIDs []uint) (int64, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("device_id = ? AND id IN ? AND read_at IS NULL", deviceID, notificationIDs).
		Update("read_at", now)
	return result.RowsAffected, result.Error
}

func (s *NotificationService) MarkAllRead(ctx context.Context, deviceID uint) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("device_id = ? AND read_at IS NULL", deviceID).
		Update("read_at", now)
	return result.RowsAffected, result.Error
}
