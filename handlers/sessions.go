package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"taps-alert-api/middleware"
	"taps-alert-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SessionsHandler struct {
	db *gorm.DB
}

func NewSessionsHandler(db *gorm.DB) *SessionsHandler {
	return &SessionsHandler{db: db}
}

type CheckInRequest struct {
	ParkingLotID uint `json:"parking_lot_id" binding:"required"`
}

type SessionResponse struct {
	ID             uint       `json:"id"`
	ParkingLotID   uint       `json:"parking_lot_id"`
	ParkingLotName string     `json:"parking_lot_name"`
	ParkingLotCode string     `json:"parking_lot_code"`
	CheckedInAt    time.Time  `json:"checked_in_at"`
	CheckedOutAt   *time.Time `json:"checked_out_at"`
	IsActive       bool       `json:"is_active"`
}

func sessionResponse(session models.ParkingSession, lot models.ParkingLot) SessionResponse {
	return SessionResponse{
		ID:             session.ID,
		ParkingLotID:   lot.ID,
		ParkingLotName: lot.Name,
		ParkingLotCode: lot.Code,
		CheckedInAt:    session.CheckedInAt,
		CheckedOutAt:   session.CheckedOutAt,
		IsActive:       session.IsActive(),
	}
}

// CheckIn opens a parking session. A device can hold at most one active
// session at a time.
func (h *SessionsHandler) CheckIn(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req CheckInRequest
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
	if !lot.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("parking lot %s is not currently active", lot.Name)})
		return
	}

	var existing models.ParkingSession
	err := h.db.Where("device_id = ? AND checked_out_at IS NULL", device.ID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you already have an active parking session; check out first"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	session := models.ParkingSession{
		DeviceID:     device.ID,
		ParkingLotID: lot.ID,
	}
	if err := h.db.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(session, lot))
}

// CheckOut closes the device's active session.
func (h *SessionsHandler) CheckOut(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var session models.ParkingSession
	err := h.db.Where("device_id = ? AND checked_out_at IS NULL", device.ID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no active parking session to check out from"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	checkoutTime := time.Now().UTC()
	err = h.db.Model(&session).Update("checked_out_at", checkoutTime).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "successfully checked out",
		"session_id":     session.ID,
		"checked_out_at": checkoutTime,
	})
}

// Current returns the device's active session, or null.
func (h *SessionsHandler) Current(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var session models.ParkingSession
	err := h.db.Where("device_id = ? AND checked_out_at IS NULL", device.ID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	var lot models.ParkingLot
	if err := h.db.First(&lot, session.ParkingLotID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse(session, lot))
}

// History lists the device's past sessions, newest first.
func (h *SessionsHandler) History(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	p := ParsePagination(c)

	var sessions []models.ParkingSession
	query := h.db.Where("device_id = ?", device.ID).
		Order("checked_in_at DESC").
		Limit(p.Limit + 1)
	if p.Before != nil {
		query = query.Where("checked_in_at < ?", *p.Before)
	}
	if err := query.Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(sessions) > p.Limit
	if hasMore {
		sessions = sessions[:p.Limit]
	}

	lots, err := h.lotsByID(sessions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	responses := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, sessionResponse(session, lots[session.ParkingLotID]))
	}

	var nextCursor string
	if hasMore && len(sessions) > 0 {
		nextCursor = sessions[len(sessions)-1].CheckedInAt.Format(time.RFC3339Nano)
	}

	c.JSON(http.StatusOK, CursorResponse{Data: responses, NextCursor: nextCursor, HasMore: hasMore})
}

func (h *SessionsHandler) lotsByID(sessions []models.ParkingSession) (map[uint]models.ParkingLot, error) {
	ids := make([]uint, 0, len(sessions))
	seen := make(map[uint]bool)
	for _, s := range sessions {
		if !seen[s.ParkingLotID] {
			seen[s.ParkingLotID] = true
			ids = append(ids, s.ParkingLotID)
		}
	}

	lots := make(map[uint]models.ParkingLot, len(ids))
	if len(ids) == 0 {
		return lots, nil
	}

	var rows []models.ParkingLot
	if err := h.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, lot := range rows {
		lots[lot.ID] = lot
	}
	return lots, nil
}
