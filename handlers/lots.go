package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taps-alert-api/models"
	"taps-alert-api/prediction"
	"taps-alert-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LotsHandler struct {
	db     *gorm.DB
	cache  *services.CacheService
	engine *prediction.Engine
}

func NewLotsHandler(db *gorm.DB, cache *services.CacheService, engine *prediction.Engine) *LotsHandler {
	return &LotsHandler{db: db, cache: cache, engine: engine}
}

const lotsCacheKey = "lots:active"

func (h *LotsHandler) GetLots(c *gin.Context) {
	var cached struct {
		Data []models.ParkingLot `json:"data"`
	}
	if err := h.cache.Get(c.Request.Context(), lotsCacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var lots []models.ParkingLot
	if err := h.db.Where("is_active = ?", true).Order("name").Find(&lots).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	resp := gin.H{"data": lots}
	go h.cache.Set(context.Background(), lotsCacheKey, resp, 60*time.Second)

	c.JSON(http.StatusOK, resp)
}

type LotWithStats struct {
	models.ParkingLot
	ActiveParkers   int64    `json:"active_parkers"`
	RecentSightings int64    `json:"recent_sightings"`
	TapsProbability *float64 `json:"taps_probability"`
}

func (h *LotsHandler) GetLot(c *gin.Context) {
	lotID, err := strconv.ParseUint(c.Param("id"), 10, 32)
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

	h.respondWithStats(c, lot)
}

func (h *LotsHandler) GetLotByCode(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))

	var lot models.ParkingLot
	if err := h.db.Where("code = ?", code).First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	h.respondWithStats(c, lot)
}

func (h *LotsHandler) respondWithStats(c *gin.Context, lot models.ParkingLot) {
	ctx := c.Request.Context()

	var activeParkers int64
	err := h.db.WithContext(ctx).
		Model(&models.ParkingSession{}).
		Where("parking_lot_id = ? AND checked_out_at IS NULL", lot.ID).
		Count(&activeParkers).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	oneDayAgo := time.Now().UTC().Add(-24 * time.Hour)
	var recentSightings int64
	err = h.db.WithContext(ctx).
		Model(&models.TapsSighting{}).
		Where("parking_lot_id = ? AND reported_at >= ?", lot.ID, oneDayAgo).
		Count(&recentSightings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	// The lot detail view reports a null probability when the engine cannot
	// evaluate, so a failure is never mistaken for a genuine low prediction.
	// The dedicated predictions endpoint surfaces the error instead.
	var probability *float64
	if result, err := h.engine.Predict(ctx, lot.ID, time.Time{}); err == nil {
		probability = &result.Probability
	} else {
		log.Printf("lot detail prediction failed for lot %d: %v", lot.ID, err)
	}

	c.JSON(http.StatusOK, LotWithStats{
		ParkingLot:      lot,
		ActiveParkers:   activeParkers,
		RecentSightings: recentSightings,
		TapsProbability: probability,
	})
}

type CreateLotRequest struct {
	Name      string   `json:"name" binding:"required"`
	Code      string   `json:"code" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateLot is admin-only.
func (h *LotsHandler) CreateLot(c *gin.Context) {
	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lot := models.ParkingLot{
		Name:      req.Name,
		Code:      strings.ToUpper(req.Code),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		IsActive:  true,
	}
	if err := h.db.Create(&lot).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "lot name or code already exists"})
		return
	}

	go h.cache.Delete(context.Background(), lotsCacheKey)

	c.JSON(http.StatusCreated, lot)
}
