package middleware

import (
	"net/http"
	"strings"

	"taps-alert-api/models"
	"taps-alert-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const deviceContextKey = "device"

// RequireDevice authenticates the Bearer token and loads the device row
// into the request context.
func RequireDevice(db *gorm.DB, authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := authService.ValidateDeviceToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		var device models.Device
		if err := db.Where("device_id = ?", claims.DeviceID).First(&device).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "device not found"})
			return
		}

		c.Set(deviceContextKey, device)
		c.Next()
	}
}

// RequireVerifiedDevice additionally insists on campus email verification.
// Must be chained after RequireDevice.
func RequireVerifiedDevice() gin.HandlerFunc {
	return func(c *gin.Context) {
		device, ok := CurrentDevice(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !device.EmailVerified {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "email verification required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin validates a staff token for lot-management endpoints.
func RequireAdmin(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := authService.ValidateAdminToken(tokenStr)
		if err != nil || claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentDevice fetches the authenticated device placed by RequireDevice.
func CurrentDevice(c *gin.Context) (models.Device, bool) {
	value, exists := c.Get(deviceContextKey)
	if !exists {
		return models.Device{}, false
	}
	device, ok := value.(models.Device)
	return device, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
