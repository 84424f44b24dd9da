package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

type reservationRow struct {
	ID          string        `db:"id"`
	BookID      string        `db:"book_id"`
	MemberID    string        `db:"member_id"`
	ReservedAt  int64         `db:"reserved_at"`
	FulfilledAt sql.NullInt64 `db:"fulfilled_at"`
	CancelledAt sql.NullInt64 `db:"cancelled_at"`
}

func (r *reservationRow) model() *models.Reservation {
	return &models.Reservation{
		ID:          r.ID,
		BookID:      r.BookID,
		MemberID:    r.MemberID,
		ReservedAt:  fromUnix(r.ReservedAt),
		FulfilledAt: timeOrNil(r.FulfilledAt),
		CancelledAt: timeOrNil(r.CancelledAt),
	}
}

const reservationColumns = `id, book_id, member_id, reserved_at, fulfilled_at, cancelled_at`

const pendingReservation = `fulfilled_at IS NULL AND cancelled_at IS NULL`

// CreateReservation inserts a hold. A second pending hold by the same member
// on the same book is rejected with storage.ErrConflict.
func (q *queries) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.BookID, r.MemberID, r.ReservedAt.Unix(), unixOrNull(r.FulfilledAt), unixOrNull(r.CancelledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation: %w", translate(err))
	}
	return nil
}

// GetReservation retrieves a reservation by ID.
func (q *queries) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var row reservationRow
	err := q.getOne(ctx, &row, "reservation "+id,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return row.model(), nil
}

// PendingReservations lists a book's waiting holds in FIFO order.
func (q *queries) PendingReservations(ctx context.Context, bookID string) ([]*models.Reservation, error) {
	var rows []reservationRow
	err := sqlx.SelectContext(ctx, q.ext, &rows,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE book_id = ? AND `+pendingReservation+`
		 ORDER BY reserved_at ASC, id ASC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	reservations := make([]*models.Reservation, len(rows))
	for i := range rows {
		reservations[i] = rows[i].model()
	}
	return reservations, nil
}

// PendingReservationFor returns the member's waiting hold on a book, if any.
func (q *queries) PendingReservationFor(ctx context.Context, bookID, memberID string) (*models.Reservation, error) {
	var row reservationRow
	err := sqlx.GetContext(ctx, q.ext, &row,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE book_id = ? AND member_id = ? AND `+pendingReservation, bookID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return row.model(), nil
}

// FulfillReservation closes a pending hold as served.
func (q *queries) FulfillReservation(ctx context.Context, id string, at time.Time) error {
	err := q.execOne(ctx, fmt.Errorf("reservation %s not pending: %w", id, storage.ErrConflict),
		`UPDATE reservations SET fulfilled_at = ? WHERE id = ? AND `+pendingReservation, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to fulfill reservation: %w", err)
	}
	return nil
}

// CancelReservation closes a pending hold as withdrawn.
func (q *queries) CancelReservation(ctx context.Context, id string, at time.Time) error {
	err := q.execOne(ctx, fmt.Errorf("reservation %s not pending: %w", id, storage.ErrConflict),
		`UPDATE reservations SET cancelled_at = ? WHERE id = ? AND `+pendingReservation, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}
	return nil
}
