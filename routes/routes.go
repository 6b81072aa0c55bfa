package routes

import (
	"net/http"

	"canaccesible/middleware"
	"canaccesible/pkg/hub"
	"canaccesible/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "canaccesible/routes/auth"
	blogRoutes "canaccesible/routes/blogs"
	convRoutes "canaccesible/routes/conversation"
	incidentRoutes "canaccesible/routes/incidents"
	notifRoutes "canaccesible/routes/notifications"
	profileRoutes "canaccesible/routes/profile"
	uploadsRoutes "canaccesible/routes/uploads"
	websocketRoutes "canaccesible/routes/websocket"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, st *store.Store, h *hub.Hub) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "CanAccesible API running"})
	})

	uploadsRoutes.Register(r)
	websocketRoutes.Register(r, st, h)
	authRoutes.RegisterPublic(r, db)
	blogRoutes.RegisterPublic(r, db)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(api, db)
	profileRoutes.Register(api, db)
	convRoutes.Register(api, st, h)
	incidentRoutes.Register(api, db)
	notifRoutes.Register(api, db)
	blogRoutes.RegisterProtected(api, db)
}
