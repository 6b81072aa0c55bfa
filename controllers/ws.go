package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"canaccesible/middleware"
	"canaccesible/models"
	"canaccesible/pkg/hub"
	"canaccesible/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

type joinPayload struct {
	ConversationID uint `json:"conversationId"`
}

type sendPayload struct {
	ConversationID uint      `json:"conversationId"`
	Message        string    `json:"message"`
	DateMessage    time.Time `json:"dateMessage"`
}

// ChatWS is the gateway endpoint. Client protocol (JSON frames):
//
//	-> {event: "joinConversation", data: {conversationId}}
//	-> {event: "leaveConversation", data: {conversationId}}
//	-> {event: "sendMessage", data: {conversationId, message, dateMessage}}
//	<- {event: "newMessage", data: message}
//	<- {event: "messageEdited", data: {messageId, message}}
//	<- {event: "messageDeleted", data: messageId}
//	<- {event: "error", error: string}
//
// A connection without a valid ?token= is accepted but every chat action on it
// answers with an error event; history stays reachable over REST.
func ChatWS(st *store.Store, h *hub.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			uid    uint
			admin  bool
			authed bool
		)
		if tokenStr := strings.TrimSpace(c.Query("token")); tokenStr != "" {
			if userIDStr, role, _, err := middleware.ParseToken(tokenStr); err == nil {
				uid64, _ := strconv.ParseUint(userIDStr, 10, 64)
				uid = uint(uid64)
				admin = role == models.RoleAdmin
				authed = uid != 0
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}

		client := hub.NewClient(conn, uid, admin, authed)
		go client.WritePump()
		defer h.Unregister(client)

		conn.SetReadLimit(1 << 20)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("[ws] read error: %v", err)
				}
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			var env hub.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				client.SendError("invalid frame")
				continue
			}

			switch env.Event {
			case "joinConversation":
				handleJoin(st, h, client, env.Data)
			case "leaveConversation":
				var p joinPayload
				if json.Unmarshal(env.Data, &p) == nil && p.ConversationID != 0 {
					h.Leave(client, p.ConversationID)
				}
			case "sendMessage":
				handleSend(st, h, client, env.Data)
			default:
				client.SendError("unknown event")
			}
		}
	}
}

func handleJoin(st *store.Store, h *hub.Hub, client *hub.Client, data json.RawMessage) {
	if !client.Authed {
		client.SendError("authentication required")
		return
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == 0 {
		client.SendError("invalid join payload")
		return
	}
	// Join-time membership check: without it any connection could subscribe
	// to another user's thread and read every future broadcast.
	ident := store.Identity{UserID: client.UserID, Admin: client.Admin}
	if err := st.Authorize(p.ConversationID, ident); err != nil {
		client.SendError("not a participant of this conversation")
		return
	}
	h.Join(client, p.ConversationID)
}

func handleSend(st *store.Store, h *hub.Hub, client *hub.Client, data json.RawMessage) {
	if !client.Authed {
		client.SendError("authentication required")
		return
	}
	var p sendPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == 0 {
		client.SendError("invalid send payload")
		return
	}

	uidStr := strconv.FormatUint(uint64(client.UserID), 10)
	if !middleware.DuplicateGuard(uidStr, p.Message) {
		client.SendError("duplicate message")
		return
	}

	// The user slot caps in-flight sends per user; the conversation lock is
	// what keeps persist-then-broadcast sequences from interleaving, so
	// frames leave in the order rows were written.
	release := middleware.AcquireUserSlot(uidStr)
	defer release()
	unlock := h.LockConversation(p.ConversationID)
	defer unlock()

	ident := store.Identity{UserID: client.UserID, Admin: client.Admin}
	msg, err := st.CreateMessage(p.ConversationID, ident, p.Message, p.DateMessage)
	if err != nil {
		_, reason := storeStatus(err)
		client.SendError(reason)
		return
	}

	// The sender gets the same broadcast as everyone else; no local append
	// happens before this frame arrives, so ordering has one source of truth.
	h.Broadcast(p.ConversationID, hub.Frame(hub.EventNewMessage, msg.APIView()))
}
