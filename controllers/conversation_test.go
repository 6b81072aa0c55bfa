package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"canaccesible/middleware"
	"canaccesible/models"
	"canaccesible/pkg/config"
	"canaccesible/pkg/hub"
	"canaccesible/pkg/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	router *gin.Engine
	st     *store.Store
	hub    *hub.Hub

	user       models.User
	admin      models.User
	userToken  string
	adminToken string
}

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(int(userID)),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"jti":  uuid.NewString(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(config.JWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Role{}, &models.User{},
		&models.Conversation{}, &models.Message{}, &models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	roles, err := models.SeedRoles(db)
	if err != nil {
		t.Fatalf("seed roles: %v", err)
	}

	user := models.User{FirstName: "Nuria", LastName: "Vega", Email: "nuria@example.com", RoleID: roles[models.RoleUser].ID}
	admin := models.User{FirstName: "Marc", LastName: "Soler", Email: "marc@example.com", RoleID: roles[models.RoleAdmin].ID}
	for _, u := range []*models.User{&user, &admin} {
		if err := u.SetPassword("abc123"); err != nil {
			t.Fatalf("set password: %v", err)
		}
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	st := store.New(db)
	h := hub.New(nil)
	go h.Run()

	r := gin.New()
	r.GET("/ws/chat", ChatWS(st, h))
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	api.POST("/conversations", CreateConversation(st))
	api.GET("/conversations", ListConversations(st))
	api.GET("/conversationMessages/:conversation_id", ListConversationMessages(st))
	api.PUT("/conversationMessages/:conversation_id/:message_id", EditConversationMessage(st, h))
	api.DELETE("/conversationMessages/:conversation_id/:message_id", DeleteConversationMessage(st, h))

	return &testEnv{
		router:     r,
		st:         st,
		hub:        h,
		user:       user,
		admin:      admin,
		userToken:  signToken(t, user.ID, models.RoleUser),
		adminToken: signToken(t, admin.ID, models.RoleAdmin),
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) openConversation(t *testing.T) uint {
	t.Helper()
	conv, err := e.st.CreateConversation(e.user.ID, "signage")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	return conv.ID
}

func TestHistoryRequiresBearerToken(t *testing.T) {
	e := newTestEnv(t)
	cid := e.openConversation(t)
	path := "/api/conversationMessages/" + strconv.Itoa(int(cid))

	if w := e.do(t, http.MethodGet, path, "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
	if w := e.do(t, http.MethodGet, path, "garbage.token.here", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}
}

func TestHistoryOrderAndShape(t *testing.T) {
	e := newTestEnv(t)
	cid := e.openConversation(t)
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, err := e.st.CreateMessage(cid, store.Identity{UserID: e.user.ID}, "Hello", t1); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.st.CreateMessage(cid, store.Identity{UserID: e.admin.ID, Admin: true}, "Hi", t1.Add(time.Minute)); err != nil {
		t.Fatalf("create: %v", err)
	}

	w := e.do(t, http.MethodGet, "/api/conversationMessages/"+strconv.Itoa(int(cid)), e.adminToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}

	var got []struct {
		ID             uint   `json:"id"`
		ConversationID uint   `json:"conversationId"`
		SenderID       uint   `json:"senderId"`
		Message        string `json:"message"`
		Sender         struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Role      struct {
				Role string `json:"role"`
			} `json:"role"`
		} `json:"sender"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Message != "Hello" || got[1].Message != "Hi" {
		t.Fatalf("expected [Hello Hi], got %+v", got)
	}
	if got[0].Sender.Role.Role != models.RoleUser || got[1].Sender.Role.Role != models.RoleAdmin {
		t.Fatalf("sender role blocks wrong: %+v", got)
	}
	if got[0].ConversationID != cid || got[0].SenderID != e.user.ID {
		t.Fatalf("wire shape wrong: %+v", got[0])
	}
}

func TestStrangerCannotListMessages(t *testing.T) {
	e := newTestEnv(t)
	cid := e.openConversation(t)

	strangerToken := signToken(t, e.admin.ID+100, models.RoleUser)
	w := e.do(t, http.MethodGet, "/api/conversationMessages/"+strconv.Itoa(int(cid)), strangerToken, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-participant, got %d", w.Code)
	}
}

func TestEditMessageAuthorizationAndBroadcast(t *testing.T) {
	e := newTestEnv(t)
	cid := e.openConversation(t)
	msg, err := e.st.CreateMessage(cid, store.Identity{UserID: e.user.ID}, "typo", time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	path := "/api/conversationMessages/" + strconv.Itoa(int(cid)) + "/" + strconv.Itoa(int(msg.ID))

	// another participant watching the channel must see the edit
	watcher := hub.NewClient(nil, e.admin.ID, true, true)
	e.hub.Join(watcher, cid)

	if w := e.do(t, http.MethodPut, path, e.adminToken, `{"message":"hijack"}`); w.Code != http.StatusForbidden {
		t.Fatalf("non-sender edit: expected 403, got %d", w.Code)
	}
	if w := e.do(t, http.MethodPut, path, e.userToken, `{"message":"  "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank edit: expected 400, got %d", w.Code)
	}
	w := e.do(t, http.MethodPut, path, e.userToken, `{"message":"fixed"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sender edit: expected 200, got %d: %s", w.Code, w.Body)
	}

	select {
	case frame := <-watcher.Send:
		var env hub.Envelope
		if err := json.Unmarshal(frame, &env); err != nil || env.Event != hub.EventMessageEdited {
			t.Fatalf("expected messageEdited frame, got %s", frame)
		}
		var p struct {
			MessageID uint   `json:"messageId"`
			Message   string `json:"message"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.MessageID != msg.ID || p.Message != "fixed" {
			t.Fatalf("edit payload wrong: %s", env.Data)
		}
	case <-time.After(time.Second):
		t.Fatalf("edit was not broadcast to joined clients")
	}
}

func TestDeleteMessageAuthorizationAndBroadcast(t *testing.T) {
	e := newTestEnv(t)
	cid := e.openConversation(t)
	msg, err := e.st.CreateMessage(cid, store.Identity{UserID: e.user.ID}, "remove me", time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	path := "/api/conversationMessages/" + strconv.Itoa(int(cid)) + "/" + strconv.Itoa(int(msg.ID))

	watcher := hub.NewClient(nil, e.admin.ID, true, true)
	e.hub.Join(watcher, cid)

	if w := e.do(t, http.MethodDelete, path, e.adminToken, ""); w.Code != http.StatusForbidden {
		t.Fatalf("non-sender delete: expected 403, got %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, path, e.userToken, ""); w.Code != http.StatusOK {
		t.Fatalf("sender delete: expected 200, got %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, path, e.userToken, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/api/conversationMessages/"+strconv.Itoa(int(cid)), e.userToken, "")
	if strings.Contains(w.Body.String(), "remove me") {
		t.Fatalf("deleted message still listed: %s", w.Body)
	}

	select {
	case frame := <-watcher.Send:
		var env hub.Envelope
		if err := json.Unmarshal(frame, &env); err != nil || env.Event != hub.EventMessageDeleted {
			t.Fatalf("expected messageDeleted frame, got %s", frame)
		}
	case <-time.After(time.Second):
		t.Fatalf("delete was not broadcast to joined clients")
	}
}

func TestConversationListVisibility(t *testing.T) {
	e := newTestEnv(t)
	e.openConversation(t)

	// admins see every thread, users only their own
	w := e.do(t, http.MethodGet, "/api/conversations", e.adminToken, "")
	if w.Code != http.StatusOK || w.Body.String() == "[]" {
		t.Fatalf("admin list: %d %s", w.Code, w.Body)
	}

	otherToken := signToken(t, e.admin.ID+50, models.RoleUser)
	w = e.do(t, http.MethodGet, "/api/conversations", otherToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("other user list: %d", w.Code)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 0 {
		t.Fatalf("expected empty list for other user, got %s", w.Body)
	}
}
