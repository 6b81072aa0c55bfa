package controllers

import (
	"errors"
	"net/http"
	"strings"

	"canaccesible/pkg/hub"
	"canaccesible/pkg/store"

	"github.com/gin-gonic/gin"
)

func storeStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest, "message is required"
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized, "not a participant of this conversation"
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden, "only the original sender may do that"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "db error"
	}
}

func abortStore(c *gin.Context, err error) {
	code, msg := storeStatus(err)
	c.JSON(code, gin.H{"msg": msg})
}

// CreateConversation opens a thread for the current user.
func CreateConversation(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		var body struct {
			Category string `json:"category"`
		}
		_ = c.ShouldBindJSON(&body)

		conv, err := st.CreateConversation(ident.UserID, body.Category)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "failed to create conversation"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":        conv.ID,
			"userId":    conv.UserID,
			"category":  conv.Category,
			"createdAt": conv.CreatedAt,
		})
	}
}

// ListConversations returns the caller's threads; admins see every thread.
func ListConversations(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		convs, err := st.ListConversations(ident)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "db error"})
			return
		}
		out := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			out = append(out, gin.H{
				"id":        conv.ID,
				"userId":    conv.UserID,
				"category":  conv.Category,
				"createdAt": conv.CreatedAt,
				"updatedAt": conv.UpdatedAt,
				"user":      conv.User.PublicView(),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}

// ListConversationMessages serves GET /api/conversationMessages/:conversation_id,
// oldest message first.
func ListConversationMessages(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		cid := paramUint(c, "conversation_id")

		msgs, err := st.ListMessages(cid, ident)
		if err != nil {
			abortStore(c, err)
			return
		}
		out := make([]map[string]any, 0, len(msgs))
		for i := range msgs {
			out = append(out, msgs[i].APIView())
		}
		c.JSON(http.StatusOK, out)
	}
}

// EditConversationMessage serves PUT /api/conversationMessages/:conversation_id/:message_id.
// The UI applies the edit optimistically; other joined clients learn about it
// through the messageEdited broadcast emitted here.
func EditConversationMessage(st *store.Store, h *hub.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		cid := paramUint(c, "conversation_id")
		mid := paramUint(c, "message_id")

		var body struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "message is required"})
			return
		}

		unlock := h.LockConversation(cid)
		defer unlock()

		msg, err := st.EditMessage(cid, mid, ident, body.Message)
		if err != nil {
			abortStore(c, err)
			return
		}

		h.Broadcast(cid, hub.Frame(hub.EventMessageEdited, gin.H{
			"messageId": msg.ID,
			"message":   msg.Body,
		}))
		c.JSON(http.StatusOK, msg.APIView())
	}
}

// DeleteConversationMessage serves DELETE /api/conversationMessages/:conversation_id/:message_id.
func DeleteConversationMessage(st *store.Store, h *hub.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := identityFrom(c)
		cid := paramUint(c, "conversation_id")
		mid := paramUint(c, "message_id")

		unlock := h.LockConversation(cid)
		defer unlock()

		if err := st.DeleteMessage(cid, mid, ident); err != nil {
			abortStore(c, err)
			return
		}

		h.Broadcast(cid, hub.Frame(hub.EventMessageDeleted, mid))
		c.JSON(http.StatusOK, gin.H{"msg": "message deleted"})
	}
}
