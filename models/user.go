package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName    string `gorm:"size:80;not null"`
	LastName     string `gorm:"size:80;not null"`
	Email        string `gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	// NameFile is the avatar file name under /uploads; empty means default avatar.
	NameFile string `gorm:"size:255"`
	RoleID   uint   `gorm:"not null;index"`
	Role     Role
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

func (u *User) IsAdmin() bool {
	return u.Role.Role == RoleAdmin
}

// PublicView is the embedded sender/author shape used across the API.
func (u *User) PublicView() map[string]any {
	return map[string]any{
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"nameFile":  u.NameFile,
		"role":      map[string]any{"role": u.Role.Role},
	}
}
