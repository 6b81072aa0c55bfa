package websocket

import (
	"canaccesible/controllers"
	"canaccesible/pkg/hub"
	"canaccesible/pkg/store"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, st *store.Store, h *hub.Hub) {
	r.GET("/ws/chat", controllers.ChatWS(st, h))
}
