package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FineType classifies why a fine was assessed.
type FineType string

const (
	FineOverdue    FineType = "overdue"
	FineLost       FineType = "lost"
	FineDamage     FineType = "damage"
	FineLateReturn FineType = "late_return"
)

// Lateness reports whether the fine was assessed for returning late.
// Overdue and late_return are the same charge under two historical names.
func (t FineType) Lateness() bool {
	return t == FineOverdue || t == FineLateReturn
}

// FineStatus is the settlement state of a fine.
type FineStatus string

const (
	FineUnpaid   FineStatus = "unpaid"
	FinePaid     FineStatus = "paid"
	FineWaived   FineStatus = "waived"
	FineDisputed FineStatus = "disputed"
)

var fineTransitions = map[FineStatus][]FineStatus{
	FineUnpaid:   {FinePaid, FineWaived, FineDisputed},
	FineDisputed: {FinePaid, FineWaived},
}

// CanTransition reports whether a fine may move from s to next.
func (s FineStatus) CanTransition(next FineStatus) bool {
	for _, allowed := range fineTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Outstanding reports whether the fine still counts against the member.
func (s FineStatus) Outstanding() bool {
	return s == FineUnpaid || s == FineDisputed
}

// Fine is a charge assessed against a borrowing transaction.
type Fine struct {
	ID           string
	BorrowingID  string
	MemberID     string
	Type         FineType
	Amount       decimal.Decimal
	AssessedDate time.Time
	PaidDate     *time.Time
	Status       FineStatus
	Notes        string
}
