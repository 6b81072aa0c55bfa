package models

import "gorm.io/gorm"

const (
	NotifyNewMessage      = "newMessage"
	NotifyIncidentComment = "incidentComment"
)

// Notification is stored for in-app listing only; push delivery is out of scope.
type Notification struct {
	gorm.Model
	UserID uint   `gorm:"not null;index"` // recipient
	Kind   string `gorm:"size:40;not null"`
	// ReferenceID points at the conversation or incident the event belongs to.
	ReferenceID uint   `gorm:"index"`
	Body        string `gorm:"size:255"`
	Seen        bool   `gorm:"not null;default:false"`
}
