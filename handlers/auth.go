package handlers

import (
	"errors"
	"net/http"

	"taps-alert-api/middleware"
	"taps-alert-api/models"
	"taps-alert-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db          *gorm.DB
	authService *services.AuthService
}

func NewAuthHandler(db *gorm.DB, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{db: db, authService: authService}
}

type RegisterDeviceRequest struct {
	DeviceID  string  `json:"device_id" binding:"required"`
	PushToken *string `json:"push_token"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// RegisterDevice creates (or refreshes) a device registration and issues a
// token. Registration is idempotent on device_id.
func (h *AuthHandler) RegisterDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := uuid.Parse(req.DeviceID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id must be a valid UUID"})
		return
	}

	var device models.Device
	err := h.db.Where("device_id = ?", req.DeviceID).First(&device).Error
	switch {
	case err == nil:
		if req.PushToken != nil {
			device.PushToken = req.PushToken
			device.IsPushEnabled = true
			if err := h.db.Save(&device).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update device"})
				return
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		device = models.Device{
			DeviceID:      req.DeviceID,
			PushToken:     req.PushToken,
			IsPushEnabled: req.PushToken != nil,
			EmailVerified: false,
		}
		if err := h.db.Create(&device).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	token, err := h.authService.GenerateDeviceToken(device.DeviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   h.authService.TokenExpirySeconds(),
	})
}

type VerifyEmailRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// VerifyEmail checks the campus domain and flips the verification flag.
// The email itself is never stored.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.authService.IsValidCampusEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email must be a valid campus address"})
		return
	}

	result := h.db.Model(&models.Device{}).
		Where("device_id = ?", req.DeviceID).
		Update("email_verified", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device not registered"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "email verified successfully",
		"email_verified": true,
	})
}

// Me returns the authenticated device.
func (h *AuthHandler) Me(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, device)
}

type UpdateDeviceRequest struct {
	PushToken     *string `json:"push_token"`
	IsPushEnabled *bool   `json:"is_push_enabled"`
}

func (h *AuthHandler) UpdateDevice(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PushToken != nil {
		device.PushToken = req.PushToken
	}
	if req.IsPushEnabled != nil {
		device.IsPushEnabled = *req.IsPushEnabled
	}

	if err := h.db.Save(&device).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update device"})
		return
	}

	c.JSON(http.StatusOK, device)
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AdminLoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// AdminLogin authenticates a staff account for lot management.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !h.authService.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.authService.GenerateAdminToken(user.ID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AdminLoginResponse{Token: token, User: user})
}
