package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/model"
	"github.com/yourorg/schoolhealth-notify/internal/service"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// GetUserNotifications handles retrieving a page of notifications
// GET /notify/user/{userId}?page={n}&limit={m}
func (h *NotificationHandler) GetUserNotifications(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// A user may only read their own notifications; admins may read any
	callerID, _ := c.Get("userID")
	callerRole, _ := c.Get("userRole")
	if callerID.(int) != targetID && callerRole != "admin" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.notificationService.GetPage(c.Request.Context(), targetID, page, limit)
	if err != nil {
		h.logger.Error("Failed to get notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notifications"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// MarkRead handles marking a set of notifications as read
// PUT /notify/mark-read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req model.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "notificationIds is required and must be non-empty"})
		return
	}

	callerID, _ := c.Get("userID")

	count, err := h.notificationService.MarkRead(c.Request.Context(), callerID.(int), req.NotificationIDs)
	if err != nil {
		h.logger.Error("Failed to mark notifications as read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, model.MarkReadResponse{
		Success:     true,
		MarkedCount: count,
	})
}

// CreateNotification handles creating a notification (admin only)
// POST /notify
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req model.NotificationCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.notificationService.Create(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create notification", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}
