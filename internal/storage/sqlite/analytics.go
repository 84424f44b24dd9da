package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

type statusCount struct {
	Status string `db:"status"`
	N      int    `db:"n"`
}

// PopularBooks ranks books by borrow count in [since, until] (unbounded below
// when since is nil). Ties go to the book with more distinct borrowers, then
// to the alphabetically first title.
func (s *SQLiteStore) PopularBooks(ctx context.Context, since *time.Time, until time.Time, limit int) ([]storage.PopularBook, error) {
	ds := dialect.From(goqu.T("borrowing_transactions").As("t")).
		Join(goqu.T("book_copies").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("t.book_copy_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("c.book_id")))).
		Where(goqu.I("t.borrowed_date").Lte(until.Unix())).
		Select(
			goqu.I("b.id").As("book_id"),
			goqu.I("b.title").As("title"),
			goqu.I("b.author").As("author"),
			goqu.COUNT(goqu.I("t.id")).As("borrow_count"),
			goqu.L("COUNT(DISTINCT t.member_id)").As("unique_borrowers"),
		).
		GroupBy(goqu.I("b.id"), goqu.I("b.title"), goqu.I("b.author")).
		Order(
			goqu.C("borrow_count").Desc(),
			goqu.C("unique_borrowers").Desc(),
			goqu.I("b.title").Asc(),
			goqu.I("b.id").Asc(),
		)

	if since != nil {
		ds = ds.Where(goqu.I("t.borrowed_date").Gte(since.Unix()))
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	var rows []storage.PopularBook
	if err := s.selectInto(ctx, &rows, ds); err != nil {
		return nil, fmt.Errorf("failed to rank popular books: %w", err)
	}
	return rows, nil
}

// CountBooks returns the number of catalogued titles.
func (s *SQLiteStore) CountBooks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`); err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return n, nil
}

// CopyStatusCounts counts copies per status.
func (s *SQLiteStore) CopyStatusCounts(ctx context.Context) (map[models.CopyStatus]int, error) {
	rows, err := s.countBy(ctx, `SELECT status, COUNT(*) AS n FROM book_copies GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count copies: %w", err)
	}
	counts := make(map[models.CopyStatus]int, len(rows))
	for _, r := range rows {
		counts[models.CopyStatus(r.Status)] = r.N
	}
	return counts, nil
}

// MemberStatusCounts counts members per status.
func (s *SQLiteStore) MemberStatusCounts(ctx context.Context) (map[models.MemberStatus]int, error) {
	rows, err := s.countBy(ctx, `SELECT status, COUNT(*) AS n FROM members GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	counts := make(map[models.MemberStatus]int, len(rows))
	for _, r := range rows {
		counts[models.MemberStatus(r.Status)] = r.N
	}
	return counts, nil
}

// TransactionStatusCounts counts transactions per status, for one member
// or for the whole library when memberID is empty.
func (s *SQLiteStore) TransactionStatusCounts(ctx context.Context, memberID string) (map[models.TransactionStatus]int, error) {
	query := `SELECT status, COUNT(*) AS n FROM borrowing_transactions`
	var args []any
	if memberID != "" {
		query += ` WHERE member_id = ?`
		args = append(args, memberID)
	}
	query += ` GROUP BY status`

	rows, err := s.countBy(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	counts := make(map[models.TransactionStatus]int, len(rows))
	for _, r := range rows {
		counts[models.TransactionStatus(r.Status)] = r.N
	}
	return counts, nil
}

// OutstandingFineTotal sums unpaid and disputed fines. Amounts are added as
// decimals in Go so no precision is lost to SQLite's float arithmetic.
func (s *SQLiteStore) OutstandingFineTotal(ctx context.Context) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := s.db.SelectContext(ctx, &amounts,
		`SELECT amount FROM fines WHERE status IN ('unpaid', 'disputed')`)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum outstanding fines: %w", err)
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

// MembersAtLimit lists members whose open loans reached their max_books.
func (s *SQLiteStore) MembersAtLimit(ctx context.Context) ([]storage.MemberLoad, error) {
	var rows []storage.MemberLoad
	err := s.db.SelectContext(ctx, &rows, `
		SELECT m.id AS member_id, m.name AS name, m.max_books AS max_books, COUNT(t.id) AS open_loans
		FROM members m
		JOIN borrowing_transactions t
		  ON t.member_id = m.id AND t.status IN ('active', 'overdue')
		GROUP BY m.id, m.name, m.max_books
		HAVING COUNT(t.id) >= m.max_books
		ORDER BY m.name, m.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members at limit: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) countBy(ctx context.Context, query string, args ...any) ([]statusCount, error) {
	var rows []statusCount
	if err := sqlx.SelectContext(ctx, s.db, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
