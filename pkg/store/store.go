package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"canaccesible/models"

	"gorm.io/gorm"
)

// Sentinel errors mapped to HTTP status codes by the REST layer and to
// error events by the gateway.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
)

// Identity is the authenticated caller as established by the JWT layer.
// The store never trusts client-side role claims beyond what the verified
// token carried.
type Identity struct {
	UserID uint
	Admin  bool
}

// Store owns durable persistence of conversations and their messages.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// CreateConversation opens a thread owned by userID.
func (s *Store) CreateConversation(userID uint, category string) (*models.Conversation, error) {
	conv := models.Conversation{UserID: userID, Category: strings.TrimSpace(category)}
	if err := s.db.Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the caller's own threads, or every thread for
// administrators, most recently updated first.
func (s *Store) ListConversations(requester Identity) ([]models.Conversation, error) {
	q := s.db.Preload("User.Role").Order("updated_at DESC")
	if !requester.Admin {
		q = q.Where("user_id = ?", requester.UserID)
	}
	var convs []models.Conversation
	if err := q.Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

func (s *Store) getConversation(conversationID uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.First(&conv, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %d: %w", conversationID, ErrNotFound)
		}
		return nil, err
	}
	return &conv, nil
}

// Authorize reports whether requester may read and write conversationID.
// Participants are the owning user and any administrator.
func (s *Store) Authorize(conversationID uint, requester Identity) error {
	conv, err := s.getConversation(conversationID)
	if err != nil {
		return err
	}
	if requester.Admin || conv.UserID == requester.UserID {
		return nil
	}
	return fmt.Errorf("conversation %d: %w", conversationID, ErrUnauthorized)
}

// ListMessages returns the conversation's messages oldest first, ordered by
// sent timestamp with identifier as tie-breaker. Messages authored by others
// are flagged seen for the requester as a side effect.
func (s *Store) ListMessages(conversationID uint, requester Identity) ([]models.Message, error) {
	if err := s.Authorize(conversationID, requester); err != nil {
		return nil, err
	}
	var msgs []models.Message
	err := s.db.Preload("Sender.Role").
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	err = s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND seen = ?", conversationID, requester.UserID, false).
		Update("seen", true).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateMessage persists a new message and returns it with the sender
// preloaded, ready for broadcast. A notification is stored for the thread
// owner when an administrator writes into their conversation.
func (s *Store) CreateMessage(conversationID uint, requester Identity, body string, sentAt time.Time) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty message body: %w", ErrValidation)
	}
	conv, err := s.getConversation(conversationID)
	if err != nil {
		return nil, err
	}
	if !requester.Admin && conv.UserID != requester.UserID {
		return nil, fmt.Errorf("conversation %d: %w", conversationID, ErrUnauthorized)
	}
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	msg := models.Message{
		ConversationID: conversationID,
		SenderID:       requester.UserID,
		Body:           body,
		SentAt:         sentAt,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	if requester.UserID != conv.UserID {
		notif := models.Notification{
			UserID:      conv.UserID,
			Kind:        models.NotifyNewMessage,
			ReferenceID: conversationID,
			Body:        truncate(body, 120),
		}
		if err := s.db.Create(&notif).Error; err != nil {
			return nil, err
		}
	}
	if err := s.db.Preload("Sender.Role").First(&msg, msg.ID).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Store) getMessage(conversationID, messageID uint) (*models.Message, error) {
	var msg models.Message
	err := s.db.Where("id = ? AND conversation_id = ?", messageID, conversationID).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %d in conversation %d: %w", messageID, conversationID, ErrNotFound)
		}
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces the body of a message. Only the original sender may
// edit; administrators get no override here.
func (s *Store) EditMessage(conversationID, messageID uint, requester Identity, newBody string) (*models.Message, error) {
	newBody = strings.TrimSpace(newBody)
	if newBody == "" {
		return nil, fmt.Errorf("empty message body: %w", ErrValidation)
	}
	msg, err := s.getMessage(conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != requester.UserID {
		return nil, fmt.Errorf("message %d: %w", messageID, ErrForbidden)
	}
	if err := s.db.Model(msg).Update("body", newBody).Error; err != nil {
		return nil, err
	}
	if err := s.db.Preload("Sender.Role").First(msg, msg.ID).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// DeleteMessage removes a message permanently. No tombstone remains.
func (s *Store) DeleteMessage(conversationID, messageID uint, requester Identity) error {
	msg, err := s.getMessage(conversationID, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requester.UserID {
		return fmt.Errorf("message %d: %w", messageID, ErrForbidden)
	}
	return s.db.Unscoped().Delete(msg).Error
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
