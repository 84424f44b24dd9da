package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/models"
)

// FineBalance summarises the fines of one member.
type FineBalance struct {
	MemberID string

	// Assessed is the sum of every fine ever assessed.
	Assessed decimal.Decimal

	// Paid and Waived sum the settled fines by outcome.
	Paid   decimal.Decimal
	Waived decimal.Decimal

	// Outstanding sums unpaid and disputed fines.
	Outstanding decimal.Decimal

	// Blocking sums the outstanding lateness fines; it is what the
	// eligibility check compares against the block threshold.
	Blocking decimal.Decimal

	UnpaidCount int
}

// CalculateFineBalance aggregates fines for one member. Fines belonging to
// other members are ignored.
func CalculateFineBalance(memberID string, fines []*models.Fine) FineBalance {
	bal := FineBalance{
		MemberID:    memberID,
		Assessed:    decimal.Zero,
		Paid:        decimal.Zero,
		Waived:      decimal.Zero,
		Outstanding: decimal.Zero,
		Blocking:    decimal.Zero,
	}

	for _, f := range fines {
		if f.MemberID != memberID {
			continue
		}
		bal.Assessed = bal.Assessed.Add(f.Amount)

		switch {
		case f.Status == models.FinePaid:
			bal.Paid = bal.Paid.Add(f.Amount)
		case f.Status == models.FineWaived:
			bal.Waived = bal.Waived.Add(f.Amount)
		case f.Status.Outstanding():
			bal.Outstanding = bal.Outstanding.Add(f.Amount)
			if f.Status == models.FineUnpaid {
				bal.UnpaidCount++
				if f.Type.Lateness() {
					bal.Blocking = bal.Blocking.Add(f.Amount)
				}
			}
		}
	}

	return bal
}

// Blocks reports whether the blocking total exceeds threshold. With a zero
// threshold any unpaid lateness charge blocks.
func (b FineBalance) Blocks(threshold decimal.Decimal) bool {
	return b.Blocking.GreaterThan(threshold)
}
