package models

import (
	"time"

	"github.com/google/uuid"
)

// Librarian is a staff account allowed to call the RPC surface.
type Librarian struct {
	ID           string
	Email        string // unique, used for login
	DisplayName  string
	PasswordHash string
	CreatedAt    int64
	UpdatedAt    int64
}

// NewLibrarian builds a librarian with a fresh ID and timestamps.
func NewLibrarian(email, displayName, passwordHash string) *Librarian {
	now := time.Now().Unix()
	return &Librarian{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
