package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/models"
)

func TestOverdueDays(t *testing.T) {
	due := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		returned time.Time
		want     int
	}{
		{"returned early", due.Add(-48 * time.Hour), 0},
		{"returned exactly at due", due, 0},
		{"one minute late counts as a day", due.Add(time.Minute), 1},
		{"exactly one day late", due.Add(24 * time.Hour), 1},
		{"six days late", due.Add(6 * 24 * time.Hour), 6},
		{"six days and an hour late", due.Add(6*24*time.Hour + time.Hour), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverdueDays(due, tt.returned); got != tt.want {
				t.Errorf("OverdueDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLateFee(t *testing.T) {
	rate := decimal.RequireFromString("0.50")

	tests := []struct {
		days int
		want string
	}{
		{0, "0"},
		{-3, "0"},
		{1, "0.5"},
		{6, "3"},
		{30, "15"},
	}

	for _, tt := range tests {
		got := LateFee(tt.days, rate)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("LateFee(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestLateFeeMonotonic(t *testing.T) {
	rate := decimal.RequireFromString("0.35")
	prev := decimal.Zero
	for days := 0; days <= 400; days++ {
		fee := LateFee(days, rate)
		if fee.LessThan(prev) {
			t.Fatalf("fee decreased at %d days: %s < %s", days, fee, prev)
		}
		prev = fee
	}
}

func TestFinePolicyValidate(t *testing.T) {
	if err := DefaultFinePolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	p := DefaultFinePolicy()
	p.PerDay = decimal.NewFromInt(-1)
	if err := p.Validate(); err == nil {
		t.Error("expected error for negative per-day rate")
	}
}

func TestCalculateFineBalance(t *testing.T) {
	fines := []*models.Fine{
		{MemberID: "m1", Type: models.FineLateReturn, Amount: decimal.RequireFromString("3.00"), Status: models.FineUnpaid},
		{MemberID: "m1", Type: models.FineLost, Amount: decimal.RequireFromString("25.00"), Status: models.FineUnpaid},
		{MemberID: "m1", Type: models.FineLateReturn, Amount: decimal.RequireFromString("1.50"), Status: models.FinePaid},
		{MemberID: "m1", Type: models.FineOverdue, Amount: decimal.RequireFromString("2.00"), Status: models.FineWaived},
		{MemberID: "m1", Type: models.FineLateReturn, Amount: decimal.RequireFromString("0.50"), Status: models.FineDisputed},
		{MemberID: "m2", Type: models.FineLateReturn, Amount: decimal.RequireFromString("9.00"), Status: models.FineUnpaid},
	}

	bal := CalculateFineBalance("m1", fines)

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"assessed", bal.Assessed, "32.00"},
		{"paid", bal.Paid, "1.50"},
		{"waived", bal.Waived, "2.00"},
		{"outstanding", bal.Outstanding, "28.50"},
		{"blocking", bal.Blocking, "3.00"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if bal.UnpaidCount != 2 {
		t.Errorf("UnpaidCount = %d, want 2", bal.UnpaidCount)
	}

	if !bal.Blocks(decimal.Zero) {
		t.Error("expected unpaid lateness fine to block at zero threshold")
	}
	if bal.Blocks(decimal.RequireFromString("5.00")) {
		t.Error("expected balance under threshold not to block")
	}
}
