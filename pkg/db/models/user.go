package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shoplane/backend/pkg/enums"
)

// User represents the canonical identity entity. Email is stored
// lowercased; Roles holds the unordered role set.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name         string           `gorm:"column:name;not null"`
	Email        string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	Roles        pq.StringArray   `gorm:"column:roles;type:text[];not null"`
	Status       enums.UserStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// HasRole reports whether the user's role set contains role.
func (u User) HasRole(role enums.Role) bool {
	for _, r := range u.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}
