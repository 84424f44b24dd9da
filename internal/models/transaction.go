package models

import "time"

const (
	// LoanPeriod is the standard loan length and renewal extension.
	LoanPeriod = 14 * 24 * time.Hour

	// MaxRenewals caps Transaction.RenewalCount.
	MaxRenewals = 3
)

// TransactionStatus is the lifecycle state of a borrowing transaction.
type TransactionStatus string

const (
	TxActive   TransactionStatus = "active"
	TxReturned TransactionStatus = "returned"
	TxOverdue  TransactionStatus = "overdue"
	TxLost     TransactionStatus = "lost"
)

// Open reports whether the loan still holds its copy.
func (s TransactionStatus) Open() bool {
	return s == TxActive || s == TxOverdue
}

var txTransitions = map[TransactionStatus][]TransactionStatus{
	TxActive:  {TxReturned, TxOverdue, TxLost},
	TxOverdue: {TxReturned, TxLost},
}

// CanTransition reports whether a transaction may move from s to next.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	for _, allowed := range txTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transaction is a borrowing transaction: one member holding one copy.
type Transaction struct {
	ID           string
	MemberID     string
	BookCopyID   string
	BorrowedDate time.Time
	DueDate      time.Time
	ReturnedDate *time.Time
	RenewalCount int
	Status       TransactionStatus
	Notes        string
}

// Loan is a Transaction with display fields joined in for callers.
type Loan struct {
	Transaction

	MemberName string
	BookID     string
	BookTitle  string
	BookAuthor string
	CopyNumber int
}

// DaysOverdue returns whole days past due as of now, rounded up. It is zero
// for loans that are not past due.
func (t *Transaction) DaysOverdue(now time.Time) int {
	end := now
	if t.ReturnedDate != nil {
		end = *t.ReturnedDate
	}
	late := end.Sub(t.DueDate)
	if late <= 0 {
		return 0
	}
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) != 0 {
		days++
	}
	return days
}
