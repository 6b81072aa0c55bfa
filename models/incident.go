package models

import "gorm.io/gorm"

const (
	IncidentOpen     = "open"
	IncidentResolved = "resolved"
)

// Incident is a citizen report of an accessibility barrier (missing ramp,
// broken signage, inaccessible transit stop, ...).
type Incident struct {
	gorm.Model
	UserID      uint   `gorm:"not null;index"`
	User        User   `gorm:"constraint:OnDelete:CASCADE"`
	Title       string `gorm:"size:200;not null"`
	Description string `gorm:"type:text;not null"`
	Category    string `gorm:"size:120;index"`
	Latitude    float64
	Longitude   float64
	NameFile    string `gorm:"size:255"`
	Status      string `gorm:"size:20;not null;default:open"`

	Comments []IncidentComment `gorm:"constraint:OnDelete:CASCADE"`
	Likes    []IncidentLike    `gorm:"constraint:OnDelete:CASCADE"`
}

type IncidentComment struct {
	gorm.Model
	IncidentID uint   `gorm:"not null;index"`
	UserID     uint   `gorm:"not null;index"`
	User       User   `gorm:"constraint:OnDelete:CASCADE"`
	Body       string `gorm:"type:text;not null"`
}

// IncidentLike is unique per (incident, user); liking twice is a no-op.
type IncidentLike struct {
	gorm.Model
	IncidentID uint `gorm:"not null;uniqueIndex:idx_like_incident_user"`
	UserID     uint `gorm:"not null;uniqueIndex:idx_like_incident_user"`
}
