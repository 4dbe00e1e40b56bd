package models

import (
	"time"

	id "minty/pkg/domain"
)

// User is the authentication identity backing an account.
type User struct {
	ID           id.UserID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is one authenticated login. AuthenticatedAt moves forward on
// reauthentication and gates destructive identity operations.
type Session struct {
	ID              id.SessionID `json:"id"`
	UserID          id.UserID    `json:"user_id"`
	Device          string       `json:"device,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	AuthenticatedAt time.Time    `json:"authenticated_at"`
}
