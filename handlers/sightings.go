package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"taps-alert-api/metrics"
	"taps-alert-api/middleware"
	"taps-alert-api/models"
	"taps-alert-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Repeat reports from the same device at the same lot inside this window
// are rejected as spam.
const sightingSpamWindow = 5 * time.Minute

type SightingsHandler struct {
	db            *gorm.DB
	notifications *services.NotificationService
}

func NewSightingsHandler(db *gorm.DB, notifications *services.NotificationService) *SightingsHandler {
	return &SightingsHandler{db: db, notifications: notifications}
}

type ReportSightingRequest struct {
	ParkingLotID uint    `json:"parking_lot_id" binding:"required"`
	Notes        *string `json:"notes"`
}

type SightingResponse struct {
	ID             uint      `json:"id"`
	ParkingLotID   uint      `json:"parking_lot_id"`
	ParkingLotName string    `json:"parking_lot_name"`
	ParkingLotCode string    `json:"parking_lot_code"`
	ReportedAt     time.Time `json:"reported_at"`
	Notes          *string   `json:"notes"`
}

// ReportSighting records a TAPS sighting, alerts everyone parked at the lot,
// and publishes the sighting to the live feed.
func (h *SightingsHandler) ReportSighting(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req ReportSightingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var lot models.ParkingLot
	if err := h.db.First(&lot, req.ParkingLotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	windowStart := time.Now().UTC().Add(-sightingSpamWindow)
	var duplicates int64
	err := h.db.Model(&models.TapsSighting{}).
		Where("reported_by_device_id = ? AND parking_lot_id = ? AND reported_at >= ?",
			device.ID, lot.ID, windowStart).
		Count(&duplicates).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if duplicates > 0 {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "you already reported TAPS at this lot within the last 5 minutes"})
		return
	}

	deviceID := device.ID
	sighting := models.TapsSighting{
		ParkingLotID:       lot.ID,
		ReportedByDeviceID: &deviceID,
		Notes:              req.Notes,
	}
	if err := h.db.Create(&sighting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record sighting"})
		return
	}
	metrics.SightingsReported.Inc()

	usersNotified, err := h.notifications.NotifyParkedUsers(c.Request.Context(), lot)
	if err != nil {
		// The sighting is stored; notification failures should not fail
		// the report.
		usersNotified = 0
	}

	go h.notifications.PublishSighting(context.Background(), sighting, lot)

	c.JSON(http.StatusCreated, gin.H{
		"id":               sighting.ID,
		"parking_lot_id":   lot.ID,
		"parking_lot_name": lot.Name,
		"parking_lot_code": lot.Code,
		"reported_at":      sighting.ReportedAt,
		"notes":            sighting.Notes,
		"users_notified":   usersNotified,
	})
}

// ListSightings returns recent sightings, optionally filtered by lot and
// look-back window.
func (h *SightingsHandler) ListSightings(c *gin.Context) {
	p := ParsePagination(c)

	hours := 24
	if hoursStr := c.Query("hours"); hoursStr != "" {
		parsed, err := strconv.Atoi(hoursStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hours parameter, must be a positive integer"})
			return
		}
		hours = parsed
	}
	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

	query := h.db.Model(&models.TapsSighting{}).
		Where("reported_at >= ?", cutoff).
		Order("reported_at DESC").
		Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("reported_at < ?", *p.Before)
	}
	if lotIDStr := c.Query("lot_id"); lotIDStr != "" {
		lotID, err := strconv.ParseUint(lotIDStr, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot_id parameter"})
			return
		}
		query = query.Where("parking_lot_id = ?", uint(lotID))
	}

	var rows []models.TapsSighting
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	responses, err := h.withLotDetails(rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = rows[len(rows)-1].ReportedAt.Format(time.RFC3339Nano)
	}

	c.JSON(http.StatusOK, CursorResponse{Data: responses, NextCursor: nextCursor, HasMore: hasMore})
}

// LatestSighting returns the most recent sighting at a lot.
func (h *SightingsHandler) LatestSighting(c *gin.Context) {
	lotID, err := strconv.ParseUint(c.Param("lot_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	var lot models.ParkingLot
	if err := h.db.First(&lot, uint(lotID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	var sighting models.TapsSighting
	err = h.db.Where("parking_lot_id = ?", lot.ID).
		Order("reported_at DESC").
		First(&sighting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no sightings found at this lot"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, SightingResponse{
		ID:             sighting.ID,
		ParkingLotID:   lot.ID,
		ParkingLotName: lot.Name,
		ParkingLotCode: lot.Code,
		ReportedAt:     sighting.ReportedAt,
		Notes:          sighting.Notes,
	})
}

func (h *SightingsHandler) withLotDetails(sightings []models.TapsSighting) ([]SightingResponse, error) {
	ids := make([]uint, 0, len(sightings))
	seen := make(map[uint]bool)
	for _, s := range sightings {
		if !seen[s.ParkingLotID] {
			seen[s.ParkingLotID] = true
			ids = append(ids, s.ParkingLotID)
		}
	}

	lots := make(map[uint]models.ParkingLot, len(ids))
	if len(ids) > 0 {
		var rows []models.ParkingLot
		if err := h.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, lot := range rows {
			lots[lot.ID] = lot
		}
	}

	responses := make([]SightingResponse, 0, len(sightings))
	for _, s := range sightings {
		lot := lots[s.ParkingLotID]
		responses = append(responses, SightingResponse{
			ID:             s.ID,
			ParkingLotID:   s.ParkingLotID,
			ParkingLotName: lot.Name,
			ParkingLotCode: lot.Code,
			ReportedAt:     s.ReportedAt,
			Notes:          s.Notes,
		})
	}
	return responses, nil
}
