package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bluewhale-protocol/api-go/cache"
	"github.com/bluewhale-protocol/api-go/models"
	"github.com/bluewhale-protocol/api-go/store"
	"github.com/bluewhale-protocol/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type NotificationController struct {
	Stores     *store.Stores
	Cache      cache.Cache
	CounterTTL time.Duration
	Log        zerolog.Logger
}

func NewNotificationController(stores *store.Stores, c cache.Cache, counterTTL time.Duration, log zerolog.Logger) *NotificationController {
	return &NotificationController{
		Stores:     stores,
		Cache:      c,
		CounterTTL: counterTTL,
		Log:        log,
	}
}

func (nc *NotificationController) GetNotifications(c *gin.Context) {
	p := utils.ParsePagination(c, defaultListSize)

	items, total, err := nc.Stores.Notifications.List(c.Request.Context(), currentUserID(c), pageOf(p))
	if err != nil {
		internalError(c, nc.Log, err, "Failed to load notifications")
		return
	}
	if items == nil {
		items = []models.Notification{}
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"pagination":    utils.NewPagination(total, p),
	})
}

// GetUnreadCount serves the badge counter from cache when possible.
func (nc *NotificationController) GetUnreadCount(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)
	key := cache.UnreadCountKey(userID)

	if cached, err := nc.Cache.Get(ctx, key); err == nil {
		if count, err := strconv.ParseInt(string(cached), 10, 64); err == nil {
			c.JSON(http.StatusOK, gin.H{"unreadCount": count})
			return
		}
	}

	count, err := nc.Stores.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		internalError(c, nc.Log, err, "Failed to count notifications")
		return
	}

	if err := nc.Cache.Set(ctx, key, []byte(strconv.FormatInt(count, 10)), nc.CounterTTL); err != nil {
		nc.Log.Warn().Err(err).Str("key", key).Msg("Unread count cache write failed")
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	updated, err := nc.Stores.Notifications.MarkAllRead(ctx, userID)
	if err != nil {
		internalError(c, nc.Log, err, "Failed to mark notifications as read")
		return
	}
	nc.dropUnreadCount(c, userID)

	c.JSON(http.StatusOK, gin.H{
		"message": "All notifications marked as read",
		"updated": updated,
	})
}

func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	id, ok := idParam(c, "notificationId", "notification")
	if !ok {
		return
	}

	userID := currentUserID(c)
	notification, err := nc.Stores.Notifications.MarkRead(c.Request.Context(), id, userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	if err != nil {
		internalError(c, nc.Log, err, "Failed to mark notification as read")
		return
	}
	nc.dropUnreadCount(c, userID)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Notification marked as read",
		"notification": notification,
	})
}

func (nc *NotificationController) dropUnreadCount(c *gin.Context, userID uint) {
	if err := nc.Cache.Delete(c.Request.Context(), cache.UnreadCountKey(userID)); err != nil {
		nc.Log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to invalidate unread count")
	}
}
