package circulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/membership"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// CheckoutRequest lends a copy to a member at At.
type CheckoutRequest struct {
	MemberID string
	CopyID   string

	// DueDate overrides At + LoanPeriod. It may not precede At.
	DueDate *time.Time
	Notes   string
	At      time.Time
}

// Checkout lends a copy. It verifies the member is eligible and the copy
// available, records an active transaction, flips the copy to borrowed and
// fulfils the member's pending hold on the book, all atomically. Of two
// concurrent checkouts of one copy exactly one succeeds; the other gets
// ErrCopyNotAvailable.
func (e *Engine) Checkout(ctx context.Context, req CheckoutRequest) (*models.Loan, error) {
	const op = "circulation.Checkout"
	at := instant(req.At)

	var txID string
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		_, elig, err := membership.Assess(ctx, q, req.MemberID, e.cfg.Fines.BlockThreshold)
		if err != nil {
			return missing(err, op, "member", req.MemberID)
		}
		if !elig.Eligible {
			return apperr.Ineligible(op, elig.Reasons)
		}

		bookCopy, err := q.GetCopy(ctx, req.CopyID)
		if err != nil {
			return missing(err, op, "copy", req.CopyID)
		}
		if bookCopy.Status != models.CopyAvailable {
			return ErrCopyNotAvailable.At(op, bookCopy.ID)
		}

		due := at.Add(e.cfg.LoanPeriod)
		if req.DueDate != nil {
			due = instant(*req.DueDate)
			if due.Before(at) {
				return apperr.Invalidf(op, "due date %s precedes checkout %s", due.Format(time.RFC3339), at.Format(time.RFC3339))
			}
		}

		tx := &models.Transaction{
			MemberID:     req.MemberID,
			BookCopyID:   bookCopy.ID,
			BorrowedDate: at,
			DueDate:      due,
			Status:       models.TxActive,
			Notes:        appendNote("", req.Notes),
		}
		if err := q.SetCopyStatus(ctx, bookCopy.ID, models.CopyAvailable, models.CopyBorrowed); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return ErrCopyNotAvailable.At(op, bookCopy.ID)
			}
			return err
		}
		if err := q.CreateTransaction(ctx, tx); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return ErrCopyNotAvailable.At(op, bookCopy.ID)
			}
			return err
		}

		hold, err := q.PendingReservationFor(ctx, bookCopy.BookID, req.MemberID)
		if err != nil {
			return err
		}
		if hold != nil {
			if err := q.FulfillReservation(ctx, hold.ID, at); err != nil {
				return err
			}
		}

		txID = tx.ID
		return nil
	})
	if err != nil {
		slog.Warn("Checkout rejected", "member_id", req.MemberID, "copy_id", req.CopyID, "error", err)
		return nil, err
	}

	e.obs.CheckedOut()
	slog.Info("Copy checked out", "transaction_id", txID, "member_id", req.MemberID, "copy_id", req.CopyID)
	return e.GetTransaction(ctx, txID)
}
