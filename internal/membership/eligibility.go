package membership

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/calculator"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// Reasons a member may not borrow.
const (
	ReasonSuspended  = "suspended"
	ReasonExpired    = "expired"
	ReasonAtLimit    = "at-limit"
	ReasonUnpaidFine = "has-unpaid-fine"
)

// Eligibility is the outcome of a borrowing check. Reasons lists every
// failed rule, in a stable order, and is empty when Eligible is true.
type Eligibility struct {
	Eligible  bool
	Reasons   []string
	OpenLoans int
	MaxBooks  int
	Balance   calculator.FineBalance
}

// Evaluate applies the borrowing rules: the member must be active, below
// their loan limit and owe no more lateness fines than threshold.
func Evaluate(m *models.Member, openLoans int, bal calculator.FineBalance, threshold decimal.Decimal) Eligibility {
	e := Eligibility{OpenLoans: openLoans, MaxBooks: m.MaxBooks, Balance: bal}

	switch m.Status {
	case models.MemberSuspended:
		e.Reasons = append(e.Reasons, ReasonSuspended)
	case models.MemberExpired:
		e.Reasons = append(e.Reasons, ReasonExpired)
	}
	if openLoans >= m.MaxBooks {
		e.Reasons = append(e.Reasons, ReasonAtLimit)
	}
	if bal.Blocks(threshold) {
		e.Reasons = append(e.Reasons, ReasonUnpaidFine)
	}

	e.Eligible = len(e.Reasons) == 0
	return e
}

// Assess loads what Evaluate needs through q, so it can run inside the same
// storage transaction as a checkout. It returns storage.ErrNotFound (wrapped)
// for an unknown member.
func Assess(ctx context.Context, q storage.Queries, memberID string, threshold decimal.Decimal) (*models.Member, Eligibility, error) {
	member, err := q.GetMember(ctx, memberID)
	if err != nil {
		return nil, Eligibility{}, err
	}
	open, err := q.CountOpenLoans(ctx, memberID)
	if err != nil {
		return nil, Eligibility{}, err
	}
	fines, err := q.ListFines(ctx, storage.FineFilter{MemberID: memberID})
	if err != nil {
		return nil, Eligibility{}, err
	}

	bal := calculator.CalculateFineBalance(memberID, fines)
	return member, Evaluate(member, open, bal, threshold), nil
}
