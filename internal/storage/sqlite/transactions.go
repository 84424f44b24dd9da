package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

type transactionRow struct {
	ID           string        `db:"id"`
	MemberID     string        `db:"member_id"`
	BookCopyID   string        `db:"book_copy_id"`
	BorrowedDate int64         `db:"borrowed_date"`
	DueDate      int64         `db:"due_date"`
	ReturnedDate sql.NullInt64 `db:"returned_date"`
	RenewalCount int           `db:"renewal_count"`
	Status       string        `db:"status"`
	Notes        string        `db:"notes"`
}

func (r *transactionRow) model() models.Transaction {
	return models.Transaction{
		ID:           r.ID,
		MemberID:     r.MemberID,
		BookCopyID:   r.BookCopyID,
		BorrowedDate: fromUnix(r.BorrowedDate),
		DueDate:      fromUnix(r.DueDate),
		ReturnedDate: timeOrNil(r.ReturnedDate),
		RenewalCount: r.RenewalCount,
		Status:       models.TransactionStatus(r.Status),
		Notes:        r.Notes,
	}
}

type loanRow struct {
	transactionRow
	MemberName string `db:"member_name"`
	BookID     string `db:"book_id"`
	BookTitle  string `db:"book_title"`
	BookAuthor string `db:"book_author"`
	CopyNumber int    `db:"copy_number"`
}

func (r *loanRow) model() *models.Loan {
	return &models.Loan{
		Transaction: r.transactionRow.model(),
		MemberName:  r.MemberName,
		BookID:      r.BookID,
		BookTitle:   r.BookTitle,
		BookAuthor:  r.BookAuthor,
		CopyNumber:  r.CopyNumber,
	}
}

const transactionColumns = `id, member_id, book_copy_id, borrowed_date, due_date, returned_date, renewal_count, status, notes`

// loanDataset selects transactions joined with their member, copy and book.
func loanDataset() *goqu.SelectDataset {
	return dialect.From(goqu.T("borrowing_transactions").As("t")).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("t.member_id")))).
		Join(goqu.T("book_copies").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("t.book_copy_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("c.book_id")))).
		Select(
			goqu.I("t.id").As("id"),
			goqu.I("t.member_id").As("member_id"),
			goqu.I("t.book_copy_id").As("book_copy_id"),
			goqu.I("t.borrowed_date").As("borrowed_date"),
			goqu.I("t.due_date").As("due_date"),
			goqu.I("t.returned_date").As("returned_date"),
			goqu.I("t.renewal_count").As("renewal_count"),
			goqu.I("t.status").As("status"),
			goqu.I("t.notes").As("notes"),
			goqu.I("m.name").As("member_name"),
			goqu.I("b.id").As("book_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("b.author").As("book_author"),
			goqu.I("c.copy_number").As("copy_number"),
		)
}

// CreateTransaction inserts a new borrowing transaction. The open-loan index
// turns a second open loan on the same copy into storage.ErrConflict.
func (q *queries) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = models.TxActive
	}

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO borrowing_transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.MemberID, t.BookCopyID, t.BorrowedDate.Unix(), t.DueDate.Unix(),
		unixOrNull(t.ReturnedDate), t.RenewalCount, string(t.Status), t.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", translate(err))
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (q *queries) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var row transactionRow
	err := q.getOne(ctx, &row, "transaction "+id,
		`SELECT `+transactionColumns+` FROM borrowing_transactions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	t := row.model()
	return &t, nil
}

// GetLoan retrieves a transaction with its display fields.
func (q *queries) GetLoan(ctx context.Context, id string) (*models.Loan, error) {
	query, args, err := loanDataset().Where(goqu.I("t.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build loan query: %w", err)
	}
	var row loanRow
	if err := q.getOne(ctx, &row, "transaction "+id, query, args...); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// UpdateTransaction writes the mutable columns guarded by the expected status.
func (q *queries) UpdateTransaction(ctx context.Context, t *models.Transaction, expected models.TransactionStatus) error {
	err := q.execOne(ctx, fmt.Errorf("transaction %s not %s: %w", t.ID, expected, storage.ErrConflict),
		`UPDATE borrowing_transactions
		 SET due_date = ?, returned_date = ?, renewal_count = ?, status = ?, notes = ?
		 WHERE id = ? AND status = ?`,
		t.DueDate.Unix(), unixOrNull(t.ReturnedDate), t.RenewalCount, string(t.Status), t.Notes,
		t.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// ListLoans returns transactions with display fields.
func (q *queries) ListLoans(ctx context.Context, filter storage.TransactionFilter) ([]*models.Loan, error) {
	ds := loanDataset()

	if filter.MemberID != "" {
		ds = ds.Where(goqu.I("t.member_id").Eq(filter.MemberID))
	}
	if filter.BookID != "" {
		ds = ds.Where(goqu.I("b.id").Eq(filter.BookID))
	}
	if filter.CopyID != "" {
		ds = ds.Where(goqu.I("t.book_copy_id").Eq(filter.CopyID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.I("t.status").In(statuses))
	}
	if filter.Newest {
		ds = ds.Order(goqu.I("t.borrowed_date").Desc(), goqu.I("t.id").Asc())
	} else {
		ds = ds.Order(goqu.I("t.due_date").Asc(), goqu.I("t.id").Asc())
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	var rows []loanRow
	if err := q.selectInto(ctx, &rows, ds); err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	loans := make([]*models.Loan, len(rows))
	for i := range rows {
		loans[i] = rows[i].model()
	}
	return loans, nil
}

// CountOpenLoans counts a member's active and overdue transactions.
func (q *queries) CountOpenLoans(ctx context.Context, memberID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT COUNT(*) FROM borrowing_transactions
		 WHERE member_id = ? AND status IN ('active', 'overdue')`, memberID)
	if err != nil {
		return 0, fmt.Errorf("failed to count open loans: %w", err)
	}
	return n, nil
}

// OpenTransactionIDs lists open loans on any copy of a book, or of a member.
func (q *queries) OpenTransactionIDs(ctx context.Context, bookID, memberID string) ([]string, error) {
	ds := dialect.From(goqu.T("borrowing_transactions").As("t")).
		Select(goqu.I("t.id")).
		Where(goqu.I("t.status").In([]string{string(models.TxActive), string(models.TxOverdue)})).
		Order(goqu.I("t.id").Asc())

	switch {
	case bookID != "" && memberID == "":
		ds = ds.Join(goqu.T("book_copies").As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("t.book_copy_id")))).
			Where(goqu.I("c.book_id").Eq(bookID))
	case memberID != "" && bookID == "":
		ds = ds.Where(goqu.I("t.member_id").Eq(memberID))
	default:
		return nil, fmt.Errorf("exactly one of book id and member id is required")
	}

	var ids []string
	if err := q.selectInto(ctx, &ids, ds); err != nil {
		return nil, fmt.Errorf("failed to list open transactions: %w", err)
	}
	return ids, nil
}

// OverdueCandidates lists active transactions due before now, oldest due first.
func (q *queries) OverdueCandidates(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := sqlx.SelectContext(ctx, q.ext, &ids,
		`SELECT id FROM borrowing_transactions
		 WHERE status = 'active' AND due_date < ?
		 ORDER BY due_date, id`, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue candidates: %w", err)
	}
	return ids, nil
}

// MarkOverdue flips a single active transaction to overdue.
func (q *queries) MarkOverdue(ctx context.Context, id string) (bool, error) {
	res, err := q.ext.ExecContext(ctx,
		`UPDATE borrowing_transactions SET status = 'overdue' WHERE id = ? AND status = 'active'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction overdue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}
