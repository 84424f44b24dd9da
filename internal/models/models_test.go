package models

import "testing"

func TestTransactionStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TransactionStatus
		want     bool
	}{
		{TxActive, TxReturned, true},
		{TxActive, TxOverdue, true},
		{TxActive, TxLost, true},
		{TxOverdue, TxReturned, true},
		{TxOverdue, TxLost, true},
		{TxOverdue, TxActive, false},
		{TxActive, TxActive, false},
		{TxReturned, TxActive, false},
		{TxReturned, TxLost, false},
		{TxReturned, TxReturned, false},
		{TxLost, TxReturned, false},
		{TxLost, TxOverdue, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTransactionStatusOpen(t *testing.T) {
	for status, want := range map[TransactionStatus]bool{
		TxActive:   true,
		TxOverdue:  true,
		TxReturned: false,
		TxLost:     false,
	} {
		if got := status.Open(); got != want {
			t.Errorf("%s.Open() = %v, want %v", status, got, want)
		}
	}
}

func TestFineStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to FineStatus
		want     bool
	}{
		{FineUnpaid, FinePaid, true},
		{FineUnpaid, FineWaived, true},
		{FineUnpaid, FineDisputed, true},
		{FineDisputed, FinePaid, true},
		{FineDisputed, FineWaived, true},
		{FineDisputed, FineUnpaid, false},
		{FinePaid, FineWaived, false},
		{FineWaived, FinePaid, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	if !FineUnpaid.Outstanding() || !FineDisputed.Outstanding() {
		t.Error("Unpaid and disputed fines should be outstanding")
	}
	if FinePaid.Outstanding() || FineWaived.Outstanding() {
		t.Error("Settled fines should not be outstanding")
	}
}

func TestCopyStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to CopyStatus
		want     bool
	}{
		{CopyAvailable, CopyBorrowed, true},
		{CopyBorrowed, CopyAvailable, true},
		{CopyAvailable, CopyMaintenance, true},
		{CopyMaintenance, CopyAvailable, true},
		{CopyBorrowed, CopyMaintenance, true},
		{CopyMaintenance, CopyBorrowed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
