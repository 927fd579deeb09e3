// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the capability level resolved for a user at authentication time.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an account in the Wanderlust application.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"_id"`
	Name             string         `gorm:"not null" json:"name"`
	Email            string         `gorm:"uniqueIndex;not null" json:"email"`
	Password         string         `gorm:"not null" json:"-"`
	IsValidatedEmail bool           `gorm:"not null;default:false" json:"isValidatedEmail"`
	ProfilePhoto     string         `gorm:"not null;default:''" json:"profilePhoto"`
	Role             Role           `gorm:"type:varchar(16);not null;default:user" json:"role,omitempty"`
	Bookmarks        []Listing      `gorm:"many2many:user_bookmarks;constraint:OnDelete:CASCADE" json:"bookmarks,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Summary is the compact user shape returned by auth endpoints.
type Summary struct {
	UserID       uint   `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// Summary returns the public identity fields of u.
func (u *User) Summary() Summary {
	return Summary{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		ProfilePhoto: u.ProfilePhoto,
	}
}
