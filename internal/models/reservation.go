package models

import "time"

// Reservation is a member's hold on a book. Holds are served in the order
// they were placed.
type Reservation struct {
	ID          string
	BookID      string
	MemberID    string
	ReservedAt  time.Time
	FulfilledAt *time.Time
	CancelledAt *time.Time
}

// Pending reports whether the hold is still waiting.
func (r *Reservation) Pending() bool {
	return r.FulfilledAt == nil && r.CancelledAt == nil
}
