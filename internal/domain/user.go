package domain

import "time"

// UserStatus represents lifecycle states for a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is the domain model for people who open and work on tickets.
// Department-level ranks live on Membership, not here.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
