package models

import "time"

const (
	// DefaultMaxBooks is the borrowing limit given to new members.
	DefaultMaxBooks = 3
	MinMaxBooks     = 1
	MaxMaxBooks     = 10
)

// MemberStatus is the standing of a member account.
type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
	MemberExpired   MemberStatus = "expired"
)

// Valid reports whether s is a known member status.
func (s MemberStatus) Valid() bool {
	switch s {
	case MemberActive, MemberSuspended, MemberExpired:
		return true
	}
	return false
}

// Member is a library patron.
type Member struct {
	ID          string
	Name        string
	Email       string // unique
	Phone       string
	Address     string
	Status      MemberStatus
	MaxBooks    int
	MemberSince time.Time
}
