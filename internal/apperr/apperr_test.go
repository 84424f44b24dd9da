package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := NotFoundf("GetCopy", "copy %s not found", "c1")
	wrapped := fmt.Errorf("checkout: %w", base)

	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, NotFound)
	}
	if got := KindOf(errors.New("disk full")); got != "" {
		t.Errorf("KindOf(plain) = %q, want empty", got)
	}
	if !Is(wrapped, NotFound) {
		t.Error("Is(wrapped, NotFound) = false")
	}
	if Is(nil, NotFound) {
		t.Error("Is(nil, NotFound) = true")
	}
}

func TestErrorsIsMatchesKindAndReason(t *testing.T) {
	sentinel := &Error{Kind: StateConflict, Reason: "renewal limit exceeded"}
	err := Conflictf("Renew", "renewal limit exceeded")

	if !errors.Is(err, sentinel) {
		t.Error("expected errors.Is to match on kind and reason")
	}
	if errors.Is(err, &Error{Kind: StateConflict, Reason: "transaction closed"}) {
		t.Error("expected different reason not to match")
	}
	if !errors.Is(err, &Error{Kind: StateConflict}) {
		t.Error("expected empty reason to match any conflict")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Blocked("DeleteBook", "book has borrowed copies", []string{"t1", "t2"})
	want := "DeleteBook: book has borrowed copies [t1, t2]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	inel := Ineligible("Checkout", []string{"suspended", "at borrowing limit"})
	if len(inel.Reasons) != 2 {
		t.Errorf("Reasons = %v, want 2 entries", inel.Reasons)
	}
	if inel.Kind != Eligibility {
		t.Errorf("Kind = %q, want %q", inel.Kind, Eligibility)
	}
}

func TestAtKeepsIdentity(t *testing.T) {
	sentinel := &Error{Kind: StateConflict, Reason: "copy not available"}
	err := sentinel.At("Checkout", "c1")

	if !errors.Is(err, sentinel) {
		t.Error("expected attributed copy to match its sentinel")
	}
	if sentinel.Op != "" || len(sentinel.IDs) != 0 {
		t.Error("At must not mutate the sentinel")
	}
	if err.Error() != "Checkout: copy not available [c1]" {
		t.Errorf("Error() = %q", err.Error())
	}
}
