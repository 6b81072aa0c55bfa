package chatclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Role mirrors the nested role block of the API's sender object.
type Role struct {
	Role string `json:"role"`
}

type Sender struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	NameFile  string `json:"nameFile"`
	Role      Role   `json:"role"`
}

// Message is the wire shape served by /api/conversationMessages and pushed
// as newMessage events.
type Message struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversationId"`
	SenderID       uint      `json:"senderId"`
	Body           string    `json:"message"`
	DateMessage    time.Time `json:"dateMessage"`
	Seen           bool      `json:"seen"`
	CreatedAt      time.Time `json:"createdAt"`
	Sender         Sender    `json:"sender"`
}

// Viewer is the local identity decoded from the token, used only for
// rendering decisions; the server re-authorizes every action.
type Viewer struct {
	UserID uint
	Admin  bool
}

// RightAligned reproduces the UI alignment rule: administrators group all
// administrator messages on their side, regular users only their own.
func RightAligned(v Viewer, m Message) bool {
	if v.Admin {
		return m.Sender.Role.Role == "admin"
	}
	return m.SenderID == v.UserID
}

type editedPayload struct {
	MessageID uint   `json:"messageId"`
	Message   string `json:"message"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Client maintains a local ordered message list consistent with the server:
// full history over REST first, then live gateway events applied in arrival
// order. The gateway broadcasts synchronously after persistence, so arrival
// order matches store order and appends need no re-sorting.
type Client struct {
	BaseURL        string // e.g. http://localhost:5000
	Token          string
	ConversationID uint

	HTTPClient *http.Client

	// OnChange, when set, runs after every applied mutation with a snapshot.
	OnChange func([]Message)
	// OnError receives gateway error events.
	OnError func(string)

	mu       sync.Mutex
	messages []Message
	conn     *websocket.Conn
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// History fetches the full message list and replaces local state.
func (c *Client) History(ctx context.Context) error {
	u := fmt.Sprintf("%s/api/conversationMessages/%d", c.BaseURL, c.ConversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("history fetch: status %d", resp.StatusCode)
	}

	var msgs []Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return err
	}

	c.mu.Lock()
	c.messages = msgs
	c.mu.Unlock()
	c.notify()
	return nil
}

// Connect dials the gateway, joins the conversation channel, and applies
// pushed events until ctx is cancelled or the connection drops. The
// connection is released deterministically on return.
func (c *Client) Connect(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return err
	}
	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	wsURL := url.URL{Scheme: scheme, Host: base.Host, Path: "/ws/chat", RawQuery: "token=" + url.QueryEscape(c.Token)}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		conn.Close()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	join := map[string]any{
		"event": "joinConversation",
		"data":  map[string]any{"conversationId": c.ConversationID},
	}
	if err := conn.WriteJSON(join); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c.Apply(raw)
	}
}

// Send emits a sendMessage action; the message shows up locally only when the
// server's newMessage broadcast comes back.
func (c *Client) Send(body string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	return conn.WriteJSON(map[string]any{
		"event": "sendMessage",
		"data": map[string]any{
			"conversationId": c.ConversationID,
			"message":        body,
			"dateMessage":    time.Now().Format(time.RFC3339Nano),
		},
	})
}

// Apply folds one raw gateway frame into local state.
func (c *Client) Apply(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return
	}
	switch env.Event {
	case "newMessage":
		var m Message
		if json.Unmarshal(env.Data, &m) != nil {
			return
		}
		c.mu.Lock()
		c.messages = append(c.messages, m)
		c.mu.Unlock()
		c.notify()

	case "messageEdited":
		var p editedPayload
		if json.Unmarshal(env.Data, &p) != nil {
			return
		}
		c.mu.Lock()
		for i := range c.messages {
			if c.messages[i].ID == p.MessageID {
				c.messages[i].Body = p.Message
				break
			}
		}
		c.mu.Unlock()
		c.notify()

	case "messageDeleted":
		var id uint
		if json.Unmarshal(env.Data, &id) != nil {
			return
		}
		c.mu.Lock()
		kept := c.messages[:0]
		for _, m := range c.messages {
			if m.ID != id {
				kept = append(kept, m)
			}
		}
		c.messages = kept
		c.mu.Unlock()
		c.notify()

	case "error":
		if c.OnError != nil {
			c.OnError(env.Error)
		}
	}
}

// Messages returns a copy of the local ordered list.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Client) notify() {
	if c.OnChange != nil {
		c.OnChange(c.Messages())
	}
}

// ViewerFromToken decodes the JWT payload locally for display decisions.
// This is presentation-only; it is never sent back as proof of anything.
func ViewerFromToken(token string) (Viewer, error) {
	parts := splitToken(token)
	if parts == nil {
		return Viewer{}, fmt.Errorf("malformed token")
	}
	var claims struct {
		Sub  string `json:"sub"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(parts, &claims); err != nil {
		return Viewer{}, err
	}
	uid, _ := strconv.ParseUint(claims.Sub, 10, 64)
	return Viewer{UserID: uint(uid), Admin: claims.Role == "admin"}, nil
}

// splitToken returns the decoded claims segment of a JWT, or nil.
func splitToken(token string) []byte {
	segs := strings.Split(token, ".")
	if len(segs) != 3 {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(segs[1])
	if err != nil {
		return nil
	}
	return b
}
