// user.go - Defines the User model for the database

package models // Declares the package name

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct { // User struct represents a user in the database
	ID        string    `gorm:"primaryKey;size:36" json:"id"`        // Generated UUID
	Name      string    `json:"name"`                                // Display name
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`   // User's email (must be unique, cannot be null)
	Password  string    `gorm:"not null" json:"-"`                   // Hashed password, never serialized
	Role      string    `gorm:"not null;default:'user'" json:"role"` // User role (user/admin)
	CreatedAt time.Time `json:"createdAt"`                           // Registration time
}

func (User) TableName() string { return "users" }

// BeforeCreate assigns the id and default role.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user carries the elevated role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
