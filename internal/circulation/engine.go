// Package circulation is the borrowing engine. It owns every borrowing
// transaction transition and the borrowed/available flips of copies.
//
// Operations take the effective instant as an argument; the engine never
// reads the wall clock. Every mutating operation runs in one storage
// transaction.
package circulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/calculator"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// Conflicts callers may match with errors.Is.
var (
	ErrCopyNotAvailable     = &apperr.Error{Kind: apperr.StateConflict, Reason: "copy not available"}
	ErrTransactionClosed    = &apperr.Error{Kind: apperr.StateConflict, Reason: "transaction closed"}
	ErrRenewalLimit         = &apperr.Error{Kind: apperr.StateConflict, Reason: "renewal limit exceeded"}
	ErrPendingReservations  = &apperr.Error{Kind: apperr.StateConflict, Reason: "book has pending reservations"}
	ErrConcurrentUpdate     = &apperr.Error{Kind: apperr.StateConflict, Reason: "changed concurrently"}
	ErrFineSettled          = &apperr.Error{Kind: apperr.StateConflict, Reason: "fine already settled"}
	ErrHoldNotPending       = &apperr.Error{Kind: apperr.StateConflict, Reason: "hold not pending"}
	ErrDuplicateReservation = &apperr.Error{Kind: apperr.StateConflict, Reason: "member already holds this book"}
)

// Config holds the circulation policy.
type Config struct {
	// LoanPeriod is the default loan length and the renewal extension.
	LoanPeriod time.Duration
	Fines      calculator.FinePolicy
}

// DefaultConfig returns a 14 day loan period and the default fine policy.
func DefaultConfig() Config {
	return Config{LoanPeriod: models.LoanPeriod, Fines: calculator.DefaultFinePolicy()}
}

// Observer receives a callback after each committed state change.
type Observer interface {
	CheckedOut()
	CheckedIn(overdueDays int)
	Renewed()
	MarkedLost()
	FineAssessed(fineType models.FineType, amount decimal.Decimal)
	FineSettled(status models.FineStatus)
	Swept(transitioned, skipped int)
}

type nopObserver struct{}

func (nopObserver) CheckedOut() {}
func (nopObserver) CheckedIn(int) {}
func (nopObserver) Renewed() {}
func (nopObserver) MarkedLost() {}
func (nopObserver) FineAssessed(models.FineType, decimal.Decimal) {}
func (nopObserver) FineSettled(models.FineStatus) {}
func (nopObserver) Swept(int, int) {}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver installs o to receive state change callbacks.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.obs = o }
}

// Engine is the circulation engine.
type Engine struct {
	store storage.Store
	cfg   Config
	obs   Observer
}

// New creates an Engine. A zero LoanPeriod falls back to the default.
func New(store storage.Store, cfg Config, opts ...Option) (*Engine, error) {
	if cfg.LoanPeriod == 0 {
		cfg.LoanPeriod = models.LoanPeriod
	}
	if cfg.LoanPeriod < 0 {
		return nil, fmt.Errorf("loan period must be positive, got %s", cfg.LoanPeriod)
	}
	if err := cfg.Fines.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{store: store, cfg: cfg, obs: nopObserver{}}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// GetTransaction returns a transaction with its display fields.
func (e *Engine) GetTransaction(ctx context.Context, transactionID string) (*models.Loan, error) {
	loan, err := e.store.GetLoan(ctx, transactionID)
	if err != nil {
		return nil, missing(err, "circulation.GetTransaction", "transaction", transactionID)
	}
	return loan, nil
}

// ListMemberTransactions returns a member's transactions, newest first.
// With openOnly only active and overdue loans are returned.
func (e *Engine) ListMemberTransactions(ctx context.Context, memberID string, openOnly bool) ([]*models.Loan, error) {
	const op = "circulation.ListMemberTransactions"
	if _, err := e.store.GetMember(ctx, memberID); err != nil {
		return nil, missing(err, op, "member", memberID)
	}

	filter := storage.TransactionFilter{MemberID: memberID, Newest: true}
	if openOnly {
		filter.Statuses = []models.TransactionStatus{models.TxActive, models.TxOverdue}
	}
	return e.store.ListLoans(ctx, filter)
}

// instant normalises a timestamp to the second, in UTC, as it is stored.
func instant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return existing
	case existing == "":
		return note
	default:
		return existing + "\n" + note
	}
}

// missing maps storage.ErrNotFound to a NotFound domain error and wraps
// anything else.
func missing(err error, op, what, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFoundf(op, "%s %s not found", what, id)
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
