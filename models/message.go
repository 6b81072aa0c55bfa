package models

import (
	"time"

	"gorm.io/gorm"
)

type Message struct {
	gorm.Model
	ConversationID uint      `gorm:"index;not null"`
	SenderID       uint      `gorm:"index;not null"`
	Sender         User      `gorm:"foreignKey:SenderID"`
	Body           string    `gorm:"type:text;not null"`
	SentAt         time.Time `gorm:"index;not null"`
	Seen           bool      `gorm:"not null;default:false"`
}

// APIView renders the message in the wire shape the frontend consumes.
// Sender must be preloaded (with its Role) for the nested sender block.
func (m *Message) APIView() map[string]any {
	return map[string]any{
		"id":             m.ID,
		"conversationId": m.ConversationID,
		"senderId":       m.SenderID,
		"message":        m.Body,
		"dateMessage":    m.SentAt,
		"seen":           m.Seen,
		"createdAt":      m.CreatedAt,
		"sender":         m.Sender.PublicView(),
	}
}
