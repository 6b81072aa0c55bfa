package models

import "gorm.io/gorm"

type Conversation struct {
	gorm.Model
	UserID uint `gorm:"not null;index"`
	User   User `gorm:"constraint:OnDelete:CASCADE"`
	// Category is a free-text label chosen by the user when opening the thread.
	Category string    `gorm:"size:120"`
	Messages []Message `gorm:"constraint:OnDelete:CASCADE"`
}
