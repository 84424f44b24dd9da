// Package analytics derives read-only statistics from committed circulation
// history. Nothing here writes.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/calculator"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

const (
	DefaultPopularLimit = 10
	MaxPopularLimit     = 100
	RecentActivityLimit = 10
)

// Timeframe is the window PopularBooks counts borrows in.
type Timeframe string

const (
	Week    Timeframe = "week"
	Month   Timeframe = "month"
	Quarter Timeframe = "quarter"
	Year    Timeframe = "year"
	AllTime Timeframe = "all"
)

// ParseTimeframe accepts a timeframe name; empty means AllTime.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case Week, Month, Quarter, Year, AllTime:
		return tf, nil
	case "":
		return AllTime, nil
	}
	return "", apperr.Invalidf("analytics.ParseTimeframe", "unknown timeframe %q", s)
}

// Since returns the start of the window ending at now, or nil for AllTime.
func (tf Timeframe) Since(now time.Time) *time.Time {
	var t time.Time
	switch tf {
	case Week:
		t = now.AddDate(0, 0, -7)
	case Month:
		t = now.AddDate(0, -1, 0)
	case Quarter:
		t = now.AddDate(0, -3, 0)
	case Year:
		t = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &t
}

// Engine is the analytics component.
type Engine struct {
	store storage.Store
}

// New creates an analytics Engine.
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// PopularBooks ranks books by borrows within the timeframe ending at now.
// A zero limit means DefaultPopularLimit.
func (e *Engine) PopularBooks(ctx context.Context, tf Timeframe, limit int, now time.Time) ([]storage.PopularBook, error) {
	const op = "analytics.PopularBooks"
	if _, err := ParseTimeframe(string(tf)); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultPopularLimit
	}
	if limit < 0 || limit > MaxPopularLimit {
		return nil, apperr.Invalidf(op, "limit must be between 1 and %d, got %d", MaxPopularLimit, limit)
	}

	books, err := e.store.PopularBooks(ctx, tf.Since(now), now, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if books == nil {
		books = []storage.PopularBook{}
	}
	return books, nil
}

// MemberActivity summarises one member's borrowing history.
type MemberActivity struct {
	MemberID       string
	Name           string
	TotalBorrows   int
	CurrentBorrows int
	OverdueCount   int
	ReturnedCount  int
	LostCount      int
	UnpaidFines    decimal.Decimal
}

// MemberActivity returns the borrowing history summary of a member.
func (e *Engine) MemberActivity(ctx context.Context, memberID string) (*MemberActivity, error) {
	const op = "analytics.MemberActivity"
	member, err := e.store.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFoundf(op, "member %s not found", memberID)
		}
		return nil, err
	}

	counts, err := e.store.TransactionStatusCounts(ctx, memberID)
	if err != nil {
		return nil, err
	}
	fines, err := e.store.ListFines(ctx, storage.FineFilter{MemberID: memberID})
	if err != nil {
		return nil, err
	}

	act := &MemberActivity{
		MemberID:       member.ID,
		Name:           member.Name,
		CurrentBorrows: counts[models.TxActive] + counts[models.TxOverdue],
		OverdueCount:   counts[models.TxOverdue],
		ReturnedCount:  counts[models.TxReturned],
		LostCount:      counts[models.TxLost],
		UnpaidFines:    calculator.CalculateFineBalance(memberID, fines).Outstanding,
	}
	for _, n := range counts {
		act.TotalBorrows += n
	}
	return act, nil
}

// LibraryStats are library-wide totals.
type LibraryStats struct {
	TotalBooks        int
	TotalCopies       int
	CopiesByStatus    map[models.CopyStatus]int
	TotalMembers      int
	MembersByStatus   map[models.MemberStatus]int
	TotalTransactions int
	ActiveBorrows     int
	Overdue           int
	UnpaidFines       decimal.Decimal
}

// LibraryStats gathers library-wide totals. The independent counts run
// concurrently.
func (e *Engine) LibraryStats(ctx context.Context) (*LibraryStats, error) {
	var (
		stats    = &LibraryStats{}
		txCounts map[models.TransactionStatus]int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalBooks, err = e.store.CountBooks(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.CopiesByStatus, err = e.store.CopyStatusCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.MembersByStatus, err = e.store.MemberStatusCounts(ctx)
		return err
	})
	g.Go(func() (err error) {
		txCounts, err = e.store.TransactionStatusCounts(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		stats.UnpaidFines, err = e.store.OutstandingFineTotal(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analytics.LibraryStats: %w", err)
	}

	for _, n := range stats.CopiesByStatus {
		stats.TotalCopies += n
	}
	for _, n := range stats.MembersByStatus {
		stats.TotalMembers += n
	}
	for _, n := range txCounts {
		stats.TotalTransactions += n
	}
	stats.ActiveBorrows = txCounts[models.TxActive] + txCounts[models.TxOverdue]
	stats.Overdue = txCounts[models.TxOverdue]
	return stats, nil
}
