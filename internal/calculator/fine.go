package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FinePolicy holds the monetary knobs of fine assessment.
type FinePolicy struct {
	// PerDay is charged for every started day a loan is returned late.
	PerDay decimal.Decimal

	// LostItemFee is charged when a loan is declared lost.
	LostItemFee decimal.Decimal

	// BlockThreshold is the outstanding lateness total above which a member
	// may no longer borrow. Zero means any unpaid lateness fine blocks.
	BlockThreshold decimal.Decimal
}

// DefaultFinePolicy returns the policy used when nothing is configured.
func DefaultFinePolicy() FinePolicy {
	return FinePolicy{
		PerDay:         decimal.RequireFromString("0.50"),
		LostItemFee:    decimal.RequireFromString("25.00"),
		BlockThreshold: decimal.Zero,
	}
}

// Validate rejects negative amounts.
func (p FinePolicy) Validate() error {
	if p.PerDay.IsNegative() {
		return fmt.Errorf("fine per day cannot be negative: %s", p.PerDay)
	}
	if p.LostItemFee.IsNegative() {
		return fmt.Errorf("lost item fee cannot be negative: %s", p.LostItemFee)
	}
	if p.BlockThreshold.IsNegative() {
		return fmt.Errorf("fine block threshold cannot be negative: %s", p.BlockThreshold)
	}
	return nil
}

// OverdueDays counts the started days between due and returned.
// A return at or before the due instant is not overdue.
func OverdueDays(due, returned time.Time) int {
	late := returned.Sub(due)
	if late <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	days := int(late / day)
	if late%day != 0 {
		days++
	}
	return days
}

// LateFee computes the late-return charge: overdue days × per-day rate,
// rounded to cents. It never decreases as days grow.
func LateFee(overdueDays int, perDay decimal.Decimal) decimal.Decimal {
	if overdueDays <= 0 || perDay.Sign() <= 0 {
		return decimal.Zero
	}
	return perDay.Mul(decimal.NewFromInt(int64(overdueDays))).Round(2)
}
