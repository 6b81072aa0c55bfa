package incidents

import (
	"canaccesible/controllers"
	"canaccesible/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/incidents", controllers.ListIncidents(db))
	g.POST("/incidents", middleware.RateLimit(), controllers.CreateIncident(db))
	g.GET("/incidents/:incident_id", controllers.GetIncident(db))
	g.DELETE("/incidents/:incident_id", controllers.DeleteIncident(db))
	g.POST("/incidents/:incident_id/like", controllers.LikeIncident(db))
	g.DELETE("/incidents/:incident_id/like", controllers.UnlikeIncident(db))
	g.GET("/incidents/:incident_id/comments", controllers.ListIncidentComments(db))
	g.POST("/incidents/:incident_id/comments", middleware.RateLimit(), controllers.CommentIncident(db))
}
