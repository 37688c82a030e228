package services

import (
	"context"
	"log"
	"time"

	"taps-alert-api/metrics"
	"taps-alert-api/models"

	"gorm.io/gorm"
)

// ReminderService sweeps for sessions that have been open past the reminder
// window and sends each a one-time checkout reminder.
type ReminderService struct {
	db            *gorm.DB
	notifications *NotificationService
	parkedHours   int
}

func NewReminderService(db *gorm.DB, notifications *NotificationService, parkedHours int) *ReminderService {
	return &ReminderService{
		db:            db,
		notifications: notifications,
		parkedHours:   parkedHours,
	}
}

// ProcessPendingReminders finds active sessions older than the window that
// have not been reminded yet, sends the reminder, and flips reminder_sent.
func (s *ReminderService) ProcessPendingReminders(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(s.parkedHours) * time.Hour)

	var sessions []models.ParkingSession
	err := s.db.WithContext(ctx).
		Where("checked_out_at IS NULL AND checked_in_at <= ? AND reminder_sent = ?", cutoff, false).
		Find(&sessions).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, session := range sessions {
		var lot models.ParkingLot
		if err := s.db.WithContext(ctx).First(&lot, session.ParkingLotID).Error; err != nil {
			log.Printf("reminder: failed to load lot %d: %v", session.ParkingLotID, err)
			continue
		}

		if err := s.notifications.SendCheckoutReminder(ctx, session, lot.Name); err != nil {
			log.Printf("reminder: failed to notify session %d: %v", session.ID, err)
			continue
		}

		err = s.db.WithContext(ctx).
			Model(&models.ParkingSession{}).
			Where("id = ?", session.ID).
			Update("reminder_sent", true).Error
		if err != nil {
			log.Printf("reminder: failed to mark session %d: %v", session.ID, err)
			continue
		}

		metrics.RemindersSent.Inc()
		sent++
	}
	return sent, nil
}

// Run executes the sweep on a fixed interval until the context is cancelled.
// The first sweep runs immediately.
func (s *ReminderService) Run(ctx context.Context, interval time.Duration) {
	s.sweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			log.Printf("reminder sweep shutting down")
			return
		}
	}
}

func (s *ReminderService) sweep(ctx context.Context) {
	count, err := s.ProcessPendingReminders(ctx)
	if err != nil {
		log.Printf("checkout reminder sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("checkout reminder sweep completed: %d reminders sent", count)
	}
}
