package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

type fineRow struct {
	ID           string          `db:"id"`
	BorrowingID  string          `db:"borrowing_id"`
	MemberID     string          `db:"member_id"`
	FineType     string          `db:"fine_type"`
	Amount       decimal.Decimal `db:"amount"`
	AssessedDate int64           `db:"assessed_date"`
	PaidDate     sql.NullInt64   `db:"paid_date"`
	Status       string          `db:"status"`
	Notes        string          `db:"notes"`
}

func (r *fineRow) model() *models.Fine {
	return &models.Fine{
		ID:           r.ID,
		BorrowingID:  r.BorrowingID,
		MemberID:     r.MemberID,
		Type:         models.FineType(r.FineType),
		Amount:       r.Amount,
		AssessedDate: fromUnix(r.AssessedDate),
		PaidDate:     timeOrNil(r.PaidDate),
		Status:       models.FineStatus(r.Status),
		Notes:        r.Notes,
	}
}

const fineColumns = `id, borrowing_id, member_id, fine_type, amount, assessed_date, paid_date, status, notes`

// CreateFine persists a new fine.
func (q *queries) CreateFine(ctx context.Context, f *models.Fine) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Status == "" {
		f.Status = models.FineUnpaid
	}

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO fines (`+fineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.BorrowingID, f.MemberID, string(f.Type), f.Amount.StringFixed(2),
		f.AssessedDate.Unix(), unixOrNull(f.PaidDate), string(f.Status), f.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert fine: %w", translate(err))
	}
	return nil
}

// GetFine retrieves a fine by ID.
func (q *queries) GetFine(ctx context.Context, id string) (*models.Fine, error) {
	var row fineRow
	if err := q.getOne(ctx, &row, "fine "+id, `SELECT `+fineColumns+` FROM fines WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// UpdateFine writes status, paid date and notes guarded by the expected status.
func (q *queries) UpdateFine(ctx context.Context, f *models.Fine, expected models.FineStatus) error {
	err := q.execOne(ctx, fmt.Errorf("fine %s not %s: %w", f.ID, expected, storage.ErrConflict),
		`UPDATE fines SET status = ?, paid_date = ?, notes = ? WHERE id = ? AND status = ?`,
		string(f.Status), unixOrNull(f.PaidDate), f.Notes, f.ID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update fine: %w", err)
	}
	return nil
}

// ListFines returns fines ordered by assessment date.
func (q *queries) ListFines(ctx context.Context, filter storage.FineFilter) ([]*models.Fine, error) {
	ds := dialect.From("fines").
		Select(goqu.C("id"), goqu.C("borrowing_id"), goqu.C("member_id"), goqu.C("fine_type"),
			goqu.C("amount"), goqu.C("assessed_date"), goqu.C("paid_date"), goqu.C("status"), goqu.C("notes")).
		Order(goqu.C("assessed_date").Asc(), goqu.C("id").Asc())

	if filter.MemberID != "" {
		ds = ds.Where(goqu.C("member_id").Eq(filter.MemberID))
	}
	if filter.TransactionID != "" {
		ds = ds.Where(goqu.C("borrowing_id").Eq(filter.TransactionID))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}

	var rows []fineRow
	if err := q.selectInto(ctx, &rows, ds); err != nil {
		return nil, fmt.Errorf("failed to list fines: %w", err)
	}

	fines := make([]*models.Fine, len(rows))
	for i := range rows {
		fines[i] = rows[i].model()
	}
	return fines, nil
}
