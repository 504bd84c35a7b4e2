package routes

import (
	"github.com/bluewhale-protocol/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupNotificationRoutes(r *gin.Engine, g guards, notificationController *controllers.NotificationController) {
	notifications := r.Group("/notifications", g.auth)
	{
		notifications.GET("", notificationController.GetNotifications)
		notifications.GET("/unread-count", notificationController.GetUnreadCount)
		notifications.PUT("/read-all", notificationController.MarkAllAsRead)
		notifications.PUT("/:notificationId/read", notificationController.MarkAsRead)
	}
}
