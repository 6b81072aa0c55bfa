package notifications

import (
	"canaccesible/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/notifications", controllers.ListNotifications(db))
	g.PUT("/notifications/:notification_id/seen", controllers.MarkNotificationSeen(db))
}
