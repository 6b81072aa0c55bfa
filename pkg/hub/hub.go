package hub

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Event names on the gateway channel.
const (
	EventNewMessage     = "newMessage"
	EventMessageEdited  = "messageEdited"
	EventMessageDeleted = "messageDeleted"
	EventError          = "error"
)

// Envelope is the JSON frame exchanged on the websocket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func Frame(event string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("[hub] marshal %s: %v", event, err)
		return nil
	}
	b, _ := json.Marshal(Envelope{Event: event, Data: raw})
	return b
}

type membership struct {
	client         *Client
	conversationID uint
}

type outbound struct {
	conversationID uint
	payload        []byte
}

// Hub fans persisted store mutations out to every connection joined to the
// conversation's channel. It owns no durability: the store persists first,
// then the handler broadcasts.
type Hub struct {
	rooms map[uint]map[*Client]bool

	join       chan membership
	leave      chan membership
	unregister chan *Client
	deliver    chan outbound

	// convMu guards convLocks; each conversation gets one mutex held across
	// a persist-then-broadcast sequence.
	convMu    sync.Mutex
	convLocks map[uint]*sync.Mutex

	// rdb, when non-nil, mirrors every broadcast through Redis pub/sub so
	// multiple instances share one logical channel per conversation.
	rdb *redis.Client
}

func New(rdb *redis.Client) *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]bool),
		join:       make(chan membership),
		leave:      make(chan membership),
		unregister: make(chan *Client),
		deliver:    make(chan outbound),
		convLocks:  make(map[uint]*sync.Mutex),
		rdb:        rdb,
	}
}

// Run serializes all room mutation and delivery. Call once in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case m := <-h.join:
			if m.client.isClosed() {
				// dropped while the join was in flight; never re-admit a
				// client whose queue is closed
				break
			}
			room := h.rooms[m.conversationID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[m.conversationID] = room
			}
			room[m.client] = true
			m.client.rooms[m.conversationID] = true

		case m := <-h.leave:
			h.dropFromRoom(m.client, m.conversationID)
			delete(m.client.rooms, m.conversationID)

		case c := <-h.unregister:
			for id := range c.rooms {
				h.dropFromRoom(c, id)
			}
			c.closeSend()

		case out := <-h.deliver:
			for c := range h.rooms[out.conversationID] {
				select {
				case c.Send <- out.payload:
				default:
					// slow consumer: drop it rather than block the channel.
					// Evict from every room first; once the queue is closed
					// no broadcast may reach it again.
					for id := range c.rooms {
						h.dropFromRoom(c, id)
					}
					c.closeSend()
				}
			}
		}
	}
}

func (h *Hub) dropFromRoom(c *Client, conversationID uint) {
	if room, ok := h.rooms[conversationID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
}

// Join subscribes the client to the conversation's channel. Authorization is
// the caller's responsibility.
func (h *Hub) Join(c *Client, conversationID uint) {
	h.join <- membership{client: c, conversationID: conversationID}
}

func (h *Hub) Leave(c *Client, conversationID uint) {
	h.leave <- membership{client: c, conversationID: conversationID}
}

// Unregister removes the client from every channel and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// LockConversation takes the conversation's mutation lock and returns its
// unlock. Callers hold it across persist-then-broadcast so frames go out in
// persisted order; unrelated conversations never contend.
func (h *Hub) LockConversation(conversationID uint) (unlock func()) {
	h.convMu.Lock()
	mu := h.convLocks[conversationID]
	if mu == nil {
		mu = &sync.Mutex{}
		h.convLocks[conversationID] = mu
	}
	h.convMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// Broadcast sends one frame to every connection joined to the conversation,
// including the originating one. With Redis enabled the frame makes a round
// trip through pub/sub so every instance delivers it exactly once locally.
func (h *Hub) Broadcast(conversationID uint, payload []byte) {
	if payload == nil {
		return
	}
	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), channelName(conversationID), payload).Err(); err != nil {
			log.Printf("[hub] redis publish: %v", err)
			h.deliver <- outbound{conversationID: conversationID, payload: payload}
		}
		return
	}
	h.deliver <- outbound{conversationID: conversationID, payload: payload}
}

// SubscribeLoop forwards Redis-published frames to local room members.
// Call once in a goroutine when Redis fan-out is enabled.
func (h *Hub) SubscribeLoop(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	pubsub := h.rdb.PSubscribe(ctx, "conv.*")
	defer pubsub.Close()
	for msg := range pubsub.Channel() {
		id, ok := conversationFromChannel(msg.Channel)
		if !ok {
			continue
		}
		h.deliver <- outbound{conversationID: id, payload: []byte(msg.Payload)}
	}
}

func channelName(conversationID uint) string {
	return "conv." + strconv.FormatUint(uint64(conversationID), 10)
}

func conversationFromChannel(ch string) (uint, bool) {
	raw, ok := strings.CutPrefix(ch, "conv.")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
