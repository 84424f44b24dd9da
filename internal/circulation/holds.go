package circulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// PlaceHold queues a member for a book. Holds are allowed while copies are
// on the shelf; the holder's next checkout of the book fulfils it.
func (e *Engine) PlaceHold(ctx context.Context, memberID, bookID string, at time.Time) (*models.Reservation, error) {
	const op = "circulation.PlaceHold"

	hold := &models.Reservation{BookID: bookID, MemberID: memberID, ReservedAt: instant(at)}
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		member, err := q.GetMember(ctx, memberID)
		if err != nil {
			return missing(err, op, "member", memberID)
		}
		if member.Status != models.MemberActive {
			return apperr.Ineligible(op, []string{string(member.Status)})
		}
		if _, err := q.GetBook(ctx, bookID); err != nil {
			return missing(err, op, "book", bookID)
		}

		if err := q.CreateReservation(ctx, hold); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return ErrDuplicateReservation.At(op, bookID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Hold placed", "reservation_id", hold.ID, "member_id", memberID, "book_id", bookID)
	return hold, nil
}

// CancelHold withdraws a pending hold.
func (e *Engine) CancelHold(ctx context.Context, holdID string, at time.Time) error {
	const op = "circulation.CancelHold"
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		hold, err := q.GetReservation(ctx, holdID)
		if err != nil {
			return missing(err, op, "reservation", holdID)
		}
		if !hold.Pending() {
			return ErrHoldNotPending.At(op, holdID)
		}
		return conflict(q.CancelReservation(ctx, holdID, instant(at)), op, holdID)
	})
	if err != nil {
		return err
	}

	slog.Info("Hold cancelled", "reservation_id", holdID)
	return nil
}

// ListHolds returns the pending holds of a book in the order they are served.
func (e *Engine) ListHolds(ctx context.Context, bookID string) ([]*models.Reservation, error) {
	if _, err := e.store.GetBook(ctx, bookID); err != nil {
		return nil, missing(err, "circulation.ListHolds", "book", bookID)
	}
	return e.store.PendingReservations(ctx, bookID)
}
