package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taps-alert-api/config"
	"taps-alert-api/handlers"
	"taps-alert-api/middleware"
	"taps-alert-api/models"
	"taps-alert-api/prediction"
	"taps-alert-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := seedParkingLots(db); err != nil {
		log.Fatalf("Failed to seed parking lots: %v", err)
	}

	// Redis cache (the API degrades without it)
	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		log.Printf("Redis unavailable, continuing without cache: %v", err)
	}
	defer cache.Close()

	// Services
	authService := services.NewAuthService(cfg.JWT, cfg.Auth)
	notificationService := services.NewNotificationService(db, cache)
	engine := prediction.NewEngine(services.NewSightingStore(db))
	reminderService := services.NewReminderService(db, notificationService, cfg.Reminder.ParkedHours)

	// Background checkout-reminder sweep
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reminderService.Run(ctx, time.Duration(cfg.Reminder.SweepIntervalMin)*time.Minute)

	// Handlers
	authHandler := handlers.NewAuthHandler(db, authService)
	lotsHandler := handlers.NewLotsHandler(db, cache, engine)
	sessionsHandler := handlers.NewSessionsHandler(db)
	sightingsHandler := handlers.NewSightingsHandler(db, notificationService)
	predictionsHandler := handlers.NewPredictionsHandler(engine)
	feedHandler := handlers.NewFeedHandler(db)
	notificationsHandler := handlers.NewNotificationsHandler(notificationService)

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "TAPS Alert API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireDevice := middleware.RequireDevice(db, authService)
	requireVerified := middleware.RequireVerifiedDevice()
	requireAdmin := middleware.RequireAdmin(authService)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.RegisterDevice)
			auth.POST("/verify-email", authHandler.VerifyEmail)
			auth.GET("/me", requireDevice, authHandler.Me)
			auth.PATCH("/me", requireDevice, authHandler.UpdateDevice)
			auth.POST("/admin/login", authHandler.AdminLogin)
		}

		lots := api.Group("/lots", requireDevice)
		{
			lots.GET("", lotsHandler.GetLots)
			lots.GET("/:id", lotsHandler.GetLot)
			lots.GET("/code/:code", lotsHandler.GetLotByCode)
		}
		api.POST("/lots", requireAdmin, lotsHandler.CreateLot)

		sessions := api.Group("/sessions", requireDevice, requireVerified)
		{
			sessions.POST("/checkin", sessionsHandler.CheckIn)
			sessions.POST("/checkout", sessionsHandler.CheckOut)
			sessions.GET("/current", sessionsHandler.Current)
			sessions.GET("/history", sessionsHandler.History)
		}

		sightings := api.Group("/sightings", requireDevice, requireVerified)
		{
			sightings.POST("", sightingsHandler.ReportSighting)
			sightings.GET("", sightingsHandler.ListSightings)
			sightings.GET("/latest/:lot_id", sightingsHandler.LatestSighting)
		}

		predictions := api.Group("/predictions", requireDevice)
		{
			predictions.GET("/:lot_id", predictionsHandler.GetPrediction)
			predictions.POST("", predictionsHandler.PredictForTime)
		}

		feed := api.Group("/feed", requireDevice)
		{
			feed.GET("", feedHandler.GetAllFeeds)
			feed.GET("/:lot_id", feedHandler.GetLotFeed)
			feed.POST("/sightings/:sighting_id/vote", requireVerified, feedHandler.Vote)
			feed.DELETE("/sightings/:sighting_id/vote", requireVerified, feedHandler.RemoveVote)
			feed.GET("/sightings/:sighting_id/votes", feedHandler.GetVotes)
		}

		notifications := api.Group("/notifications", requireDevice)
		{
			notifications.GET("", notificationsHandler.GetNotifications)
			notifications.GET("/unread", notificationsHandler.GetUnread)
			notifications.POST("/read", notificationsHandler.MarkRead)
			notifications.POST("/read/all", notificationsHandler.MarkAllRead)
		}
	}

	router.GET("/ws/live", handlers.LiveSightings(cache, authService))

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ParkingLot{},
		&models.Device{},
		&models.ParkingSession{},
		&models.TapsSighting{},
		&models.Notification{},
		&models.Vote{},
		&models.User{},
	)
}

// seedParkingLots inserts the campus lots on first boot.
func seedParkingLots(db *gorm.DB) error {
	lots := []models.ParkingLot{
		{Name: "Hutchinson Parking Structure", Code: "HUTCH", Latitude: ptr(38.5382), Longitude: ptr(-121.7617), IsActive: true},
		{Name: "Memorial Union Parking Structure", Code: "MU", Latitude: ptr(38.5425), Longitude: ptr(-121.7490), IsActive: true},
	}

	for _, lot := range lots {
		var existing models.ParkingLot
		err := db.Where("code = ?", lot.Code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&lot).Error; err != nil {
			return err
		}
		log.Printf("Seeded parking lot: %s", lot.Name)
	}
	return nil
}

func ptr(v float64) *float64 { return &v }
