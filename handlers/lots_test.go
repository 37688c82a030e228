package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taps-alert-api/models"
	"taps-alert-api/prediction"
	"taps-alert-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// failingStore resolves lots but cannot count sightings, forcing the engine
// to error.
type failingStore struct {
	lots map[uint]prediction.Lot
}

func (s *failingStore) FindLot(ctx context.Context, lotID uint) (*prediction.Lot, error) {
	lot, ok := s.lots[lotID]
	if !ok {
		return nil, prediction.ErrLotNotFound
	}
	return &lot, nil
}

func (s *failingStore) CountSightings(ctx context.Context, lotID uint, since time.Time, until *time.Time, weekday *time.Weekday) (int64, error) {
	return 0, errors.New("connection refused")
}

func newLotsRouter(db *gorm.DB, device models.Device, engine *prediction.Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewLotsHandler(db, services.NewDisabledCacheService(), engine)

	router := gin.New()
	lots := router.Group("/api/v1/lots", asDevice(device))
	lots.GET("", handler.GetLots)
	lots.GET("/:id", handler.GetLot)
	lots.GET("/code/:code", handler.GetLotByCode)
	return router
}

type lotStatsResponse struct {
	ID              uint     `json:"id"`
	Code            string   `json:"code"`
	ActiveParkers   int64    `json:"active_parkers"`
	RecentSightings int64    `json:"recent_sightings"`
	TapsProbability *float64 `json:"taps_probability"`
}

func TestGetLotStats(t *testing.T) {
	db := newTestDB(t)
	lot := seedLot(t, db, "Hutchinson Parking Structure", "HUTCH", true)
	device := seedDevice(t, db, "550e8400-e29b-41d4-a716-446655440000")

	session := models.ParkingSession{DeviceID: device.ID, ParkingLotID: lot.ID}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	sighting := models.TapsSighting{ParkingLotID: lot.ID, ReportedAt: time.Now().UTC().Add(-time.Hour)}
	if err := db.Create(&sighting).Error; err != nil {
		t.Fatalf("failed to seed sighting: %v", err)
	}

	engine := prediction.NewEngine(&stubStore{lots: map[uint]prediction.Lot{
		lot.ID: {ID: lot.ID, Name: lot.Name, Code: lot.Code},
	}})
	router := newLotsRouter(db, device, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/lots/%d", lot.ID), nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp lotStatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ActiveParkers != 1 {
		t.Errorf("active_parkers = %d, want 1", resp.ActiveParkers)
	}
	if resp.RecentSightings != 1 {
		t.Errorf("recent_sightings = %d, want 1", resp.RecentSightings)
	}
	if resp.TapsProbability == nil {
		t.Fatal("taps_probability = null, want a value when the engine succeeds")
	}
	if *resp.TapsProbability < 0 || *resp.TapsProbability > 1 {
		t.Errorf("taps_probability = %v, outside [0, 1]", *resp.TapsProbability)
	}
}

func TestGetLotProbabilityNullOnEngineFailure(t *testing.T) {
	db := newTestDB(t)
	lot := seedLot(t, db, "Hutchinson Parking Structure", "HUTCH", true)
	device := seedDevice(t, db, "550e8400-e29b-41d4-a716-446655440000")

	engine := prediction.NewEngine(&failingStore{lots: map[uint]prediction.Lot{
		lot.ID: {ID: lot.ID, Name: lot.Name, Code: lot.Code},
	}})
	router := newLotsRouter(db, device, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/lots/%d", lot.ID), nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (lot detail degrades, not errors)", w.Code, http.StatusOK)
	}

	var resp lotStatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// Null distinguishes "engine unavailable" from a genuine low prediction.
	if resp.TapsProbability != nil {
		t.Errorf("taps_probability = %v, want null when the engine fails", *resp.TapsProbability)
	}
}

func TestGetLotByCode(t *testing.T) {
	db := newTestDB(t)
	lot := seedLot(t, db, "Hutchinson Parking Structure", "HUTCH", true)
	device := seedDevice(t, db, "550e8400-e29b-41d4-a716-446655440000")

	engine := prediction.NewEngine(&stubStore{lots: map[uint]prediction.Lot{
		lot.ID: {ID: lot.ID, Name: lot.Name, Code: lot.Code},
	}})
	router := newLotsRouter(db, device, engine)

	// Lookup is case-insensitive on the code.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lots/code/hutch", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp lotStatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "HUTCH" {
		t.Errorf("code = %q, want %q", resp.Code, "HUTCH")
	}
}

func TestGetLotUnknown(t *testing.T) {
	db := newTestDB(t)
	device := seedDevice(t, db, "550e8400-e29b-41d4-a716-446655440000")
	engine := prediction.NewEngine(&stubStore{lots: map[uint]prediction.Lot{}})
	router := newLotsRouter(db, device, engine)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lots/999", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
