package models

import "gorm.io/gorm"

// Blog is an article published by an administrator.
type Blog struct {
	gorm.Model
	UserID   uint   `gorm:"not null;index"`
	User     User   `gorm:"constraint:OnDelete:CASCADE"`
	Title    string `gorm:"size:200;not null"`
	Body     string `gorm:"type:text;not null"`
	NameFile string `gorm:"size:255"`
}
