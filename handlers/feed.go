package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taps-alert-api/middleware"
	"taps-alert-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FeedWindow is how far back the sighting feed looks.
const FeedWindow = 3 * time.Hour

type FeedHandler struct {
	db *gorm.DB
}

func NewFeedHandler(db *gorm.DB) *FeedHandler {
	return &FeedHandler{db: db}
}

type FeedSighting struct {
	ID             uint             `json:"id"`
	ParkingLotID   uint             `json:"parking_lot_id"`
	ParkingLotName string           `json:"parking_lot_name"`
	ParkingLotCode string           `json:"parking_lot_code"`
	ReportedAt     time.Time        `json:"reported_at"`
	Notes          *string          `json:"notes"`
	Upvotes        int64            `json:"upvotes"`
	Downvotes      int64            `json:"downvotes"`
	NetScore       int64            `json:"net_score"`
	UserVote       *models.VoteType `json:"user_vote"`
	MinutesAgo     int              `json:"minutes_ago"`
}

type LotFeed struct {
	ParkingLotID   uint           `json:"parking_lot_id"`
	ParkingLotName string         `json:"parking_lot_name"`
	ParkingLotCode string         `json:"parking_lot_code"`
	Sightings      []FeedSighting `json:"sightings"`
	TotalSightings int            `json:"total_sightings"`
}

// GetAllFeeds returns recent sightings for every active lot, with vote
// counts and the caller's own vote.
func (h *FeedHandler) GetAllFeeds(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var lots []models.ParkingLot
	if err := h.db.Where("is_active = ?", true).Order("name").Find(&lots).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	cutoff := time.Now().UTC().Add(-FeedWindow)

	feeds := make([]LotFeed, 0, len(lots))
	total := 0
	for _, lot := range lots {
		feed, err := h.buildLotFeed(lot, device, cutoff)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
			return
		}
		feeds = append(feeds, feed)
		total += feed.TotalSightings
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":           feeds,
		"total_sightings": total,
	})
}

// GetLotFeed returns the recent-sighting feed for one lot.
func (h *FeedHandler) GetLotFeed(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

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

	feed, err := h.buildLotFeed(lot, device, time.Now().UTC().Add(-FeedWindow))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, feed)
}

func (h *FeedHandler) buildLotFeed(lot models.ParkingLot, device models.Device, cutoff time.Time) (LotFeed, error) {
	var sightings []models.TapsSighting
	err := h.db.Where("parking_lot_id = ? AND reported_at >= ?", lot.ID, cutoff).
		Order("reported_at DESC").
		Find(&sightings).Error
	if err != nil {
		return LotFeed{}, err
	}

	now := time.Now().UTC()
	feedSightings := make([]FeedSighting, 0, len(sightings))
	for _, sighting := range sightings {
		entry, err := h.sightingWithVotes(sighting, device, lot, now)
		if err != nil {
			return LotFeed{}, err
		}
		feedSightings = append(feedSightings, entry)
	}

	return LotFeed{
		ParkingLotID:   lot.ID,
		ParkingLotName: lot.Name,
		ParkingLotCode: lot.Code,
		Sightings:      feedSightings,
		TotalSightings: len(feedSightings),
	}, nil
}

func (h *FeedHandler) sightingWithVotes(sighting models.TapsSighting, device models.Device, lot models.ParkingLot, now time.Time) (FeedSighting, error) {
	upvotes, downvotes, err := h.voteCounts(sighting.ID)
	if err != nil {
		return FeedSighting{}, err
	}

	userVote, err := h.userVote(sighting.ID, device.ID)
	if err != nil {
		return FeedSighting{}, err
	}

	return FeedSighting{
		ID:             sighting.ID,
		ParkingLotID:   sighting.ParkingLotID,
		ParkingLotName: lot.Name,
		ParkingLotCode: lot.Code,
		ReportedAt:     sighting.ReportedAt,
		Notes:          sighting.Notes,
		Upvotes:        upvotes,
		Downvotes:      downvotes,
		NetScore:       upvotes - downvotes,
		UserVote:       userVote,
		MinutesAgo:     int(now.Sub(sighting.ReportedAt).Minutes()),
	}, nil
}

func (h *FeedHandler) voteCounts(sightingID uint) (int64, int64, error) {
	var upvotes int64
	err := h.db.Model(&models.Vote{}).
		Where("sighting_id = ? AND vote_type = ?", sightingID, models.VoteUp).
		Count(&upvotes).Error
	if err != nil {
		return 0, 0, err
	}

	var downvotes int64
	err = h.db.Model(&models.Vote{}).
		Where("sighting_id = ? AND vote_type = ?", sightingID, models.VoteDown).
		Count(&downvotes).Error
	if err != nil {
		return 0, 0, err
	}

	return upvotes, downvotes, nil
}

func (h *FeedHandler) userVote(sightingID, deviceID uint) (*models.VoteType, error) {
	var vote models.Vote
	err := h.db.Where("sighting_id = ? AND device_id = ?", sightingID, deviceID).First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vote.VoteType, nil
}

type VoteRequest struct {
	VoteType models.VoteType `json:"vote_type" binding:"required,oneof=upvote downvote"`
}

// Vote casts, toggles, or switches the caller's vote on a sighting:
// new vote creates, same vote removes, opposite vote updates.
func (h *FeedHandler) Vote(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	sightingID, err := strconv.ParseUint(c.Param("sighting_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sighting id"})
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var sighting models.TapsSighting
	if err := h.db.First(&sighting, uint(sightingID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sighting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	var existing models.Vote
	err = h.db.Where("sighting_id = ? AND device_id = ?", sighting.ID, device.ID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		vote := models.Vote{
			DeviceID:   device.ID,
			SightingID: sighting.ID,
			VoteType:   req.VoteType,
		}
		if err := h.db.Create(&vote).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record vote"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "action": "created", "vote_type": req.VoteType})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
	case existing.VoteType == req.VoteType:
		if err := h.db.Delete(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove vote"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "action": "removed", "vote_type": nil})
	default:
		if err := h.db.Model(&existing).Update("vote_type", req.VoteType).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update vote"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "action": "updated", "vote_type": req.VoteType})
	}
}

// RemoveVote deletes the caller's vote on a sighting.
func (h *FeedHandler) RemoveVote(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	sightingID, err := strconv.ParseUint(c.Param("sighting_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sighting id"})
		return
	}

	var existing models.Vote
	err = h.db.Where("sighting_id = ? AND device_id = ?", uint(sightingID), device.ID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "you haven't voted on this sighting"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	if err := h.db.Delete(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "vote removed"})
}

// GetVotes returns the vote tallies for a sighting plus the caller's vote.
func (h *FeedHandler) GetVotes(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	sightingID, err := strconv.ParseUint(c.Param("sighting_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sighting id"})
		return
	}

	var sighting models.TapsSighting
	if err := h.db.First(&sighting, uint(sightingID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sighting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	upvotes, downvotes, err := h.voteCounts(sighting.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	userVote, err := h.userVote(sighting.ID, device.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sighting_id": sighting.ID,
		"upvotes":     upvotes,
		"downvotes":   downvotes,
		"net_score":   upvotes - downvotes,
		"user_vote":   userVote,
	})
}
