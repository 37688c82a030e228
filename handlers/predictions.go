package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taps-alert-api/metrics"
	"taps-alert-api/prediction"

	"github.com/gin-gonic/gin"
)

type PredictionsHandler struct {
	engine *prediction.Engine
}

func NewPredictionsHandler(engine *prediction.Engine) *PredictionsHandler {
	return &PredictionsHandler{engine: engine}
}

// GetPrediction evaluates the probability for a lot at the current time.
func (h *PredictionsHandler) GetPrediction(c *gin.Context) {
	lotID, err := strconv.ParseUint(c.Param("lot_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lot id"})
		return
	}

	h.predict(c, uint(lotID), time.Time{})
}

type PredictionRequest struct {
	ParkingLotID uint       `json:"parking_lot_id" binding:"required"`
	Timestamp    *time.Time `json:"timestamp"`
}

// PredictForTime evaluates the probability at a caller-chosen time, for
// planning ahead.
func (h *PredictionsHandler) PredictForTime(c *gin.Context) {
	var req PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at := time.Time{}
	if req.Timestamp != nil {
		at = *req.Timestamp
	}

	h.predict(c, req.ParkingLotID, at)
}

func (h *PredictionsHandler) predict(c *gin.Context, lotID uint, at time.Time) {
	start := time.Now()
	result, err := h.engine.Predict(c.Request.Context(), lotID, at)
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, prediction.ErrLotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	metrics.PredictionsServed.Inc()
	c.JSON(http.StatusOK, result)
}
