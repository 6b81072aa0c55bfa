package models

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Role struct {
	gorm.Model `json:"-"`
	Role       string `gorm:"uniqueIndex;size:20;not null" json:"role"`
}

// SeedRoles ensures the two built-in roles exist and returns them keyed by name.
func SeedRoles(db *gorm.DB) (map[string]Role, error) {
	out := make(map[string]Role, 2)
	for _, name := range []string{RoleUser, RoleAdmin} {
		var r Role
		if err := db.Where("role = ?", name).FirstOrCreate(&r, Role{Role: name}).Error; err != nil {
			return nil, err
		}
		out[name] = r
	}
	return out, nil
}
