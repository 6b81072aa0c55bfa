package conversation

import (
	"canaccesible/controllers"
	"canaccesible/middleware"
	"canaccesible/pkg/hub"
	"canaccesible/pkg/store"

	"github.com/gin-gonic/gin"
)

// Register registers conversation and message routes (protected).
// Message mutation goes through the synchronous path; the handlers broadcast
// the corresponding gateway events so other joined clients stay consistent.
func Register(g *gin.RouterGroup, st *store.Store, h *hub.Hub) {
	g.POST("/conversations", controllers.CreateConversation(st))
	g.GET("/conversations", controllers.ListConversations(st))

	g.GET("/conversationMessages/:conversation_id", controllers.ListConversationMessages(st))
	g.PUT("/conversationMessages/:conversation_id/:message_id", middleware.RateLimit(), controllers.EditConversationMessage(st, h))
	g.DELETE("/conversationMessages/:conversation_id/:message_id", middleware.RateLimit(), controllers.DeleteConversationMessage(st, h))
}
