package handlers

import (
	"net/http"
	"strconv"

	"taps-alert-api/middleware"
	"taps-alert-api/services"

	"github.com/gin-gonic/gin"
)

type NotificationsHandler struct {
	notifications *services.NotificationService
}

func NewNotificationsHandler(notifications *services.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// GetNotifications lists all notifications for the device with counts.
func (h *NotificationsHandler) GetNotifications(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)

	notifications, unread, total, err := h.notifications.GetAll(c.Request.Context(), device.ID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
		"total":         total,
	})
}

// GetUnread is the polling endpoint clients hit for new alerts.
func (h *NotificationsHandler) GetUnread(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit := intQuery(c, "limit", 50)

	notifications, err := h.notifications.GetUnread(c.Request.Context(), device.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  len(notifications),
		"total":         len(notifications),
	})
}

type MarkReadRequest struct {
	NotificationIDs []uint `json:"notification_ids" binding:"required"`
}

func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	marked, err := h.notifications.MarkRead(c.Request.Context(), device.ID, req.NotificationIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "marked_count": marked})
}

func (h *NotificationsHandler) MarkAllRead(c *gin.Context) {
	device, ok := middleware.CurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	marked, err := h.notifications.MarkAllRead(c.Request.Context(), device.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "marked_count": marked})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
