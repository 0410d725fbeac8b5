// Package models contains data models for the auth service.
package models

import "time"

// User represents an account in the system. The password is stored
// only as a bcrypt hash and is never serialized in responses.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Username     string    `json:"username" gorm:"not null"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Roles        Roles     `json:"roles" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// Credentials is the login input. It exists only for the duration of
// a login request and is never persisted.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserProfile is the reduced projection of a User that gets embedded
// in tokens. Derived at issuance time; it has no lifecycle of its own.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Roles Roles  `json:"roles"`
}

// Profile derives the token-embeddable projection of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:    u.ID,
		Name:  u.Name,
		Roles: u.Roles,
	}
}
