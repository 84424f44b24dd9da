package circulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/calculator"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// CheckinRequest returns a borrowed copy.
type CheckinRequest struct {
	TransactionID string

	// ReturnedDate overrides At. It may not precede the borrowed date.
	ReturnedDate *time.Time
	Notes        string
	At           time.Time
}

// CheckinResult is a closed loan and the late fine it produced, if any.
type CheckinResult struct {
	Loan *models.Loan
	Fine *models.Fine
}

// Checkin closes an active or overdue loan and makes the copy available.
// A return after the due date assesses a late_return fine of one day's rate
// per started day late.
func (e *Engine) Checkin(ctx context.Context, req CheckinRequest) (*CheckinResult, error) {
	const op = "circulation.Checkin"
	returned := instant(req.At)
	if req.ReturnedDate != nil {
		returned = instant(*req.ReturnedDate)
	}

	var (
		fine *models.Fine
		days int
	)
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		tx, err := q.GetTransaction(ctx, req.TransactionID)
		if err != nil {
			return missing(err, op, "transaction", req.TransactionID)
		}
		if !tx.Status.CanTransition(models.TxReturned) {
			return ErrTransactionClosed.At(op, tx.ID)
		}
		if returned.Before(tx.BorrowedDate) {
			return apperr.Invalidf(op, "returned date %s precedes borrowed date %s",
				returned.Format(time.RFC3339), tx.BorrowedDate.Format(time.RFC3339))
		}

		prev := tx.Status
		tx.Status = models.TxReturned
		tx.ReturnedDate = &returned
		tx.Notes = appendNote(tx.Notes, req.Notes)
		if err := q.UpdateTransaction(ctx, tx, prev); err != nil {
			return conflict(err, op, tx.ID)
		}
		if err := q.SetCopyStatus(ctx, tx.BookCopyID, models.CopyBorrowed, models.CopyAvailable); err != nil {
			return conflict(err, op, tx.BookCopyID)
		}

		days = calculator.OverdueDays(tx.DueDate, returned)
		if days == 0 {
			return nil
		}
		fine = &models.Fine{
			BorrowingID:  tx.ID,
			MemberID:     tx.MemberID,
			Type:         models.FineLateReturn,
			Amount:       calculator.LateFee(days, e.cfg.Fines.PerDay),
			AssessedDate: returned,
			Status:       models.FineUnpaid,
		}
		return q.CreateFine(ctx, fine)
	})
	if err != nil {
		slog.Warn("Checkin rejected", "transaction_id", req.TransactionID, "error", err)
		return nil, err
	}

	e.obs.CheckedIn(days)
	if fine != nil {
		e.obs.FineAssessed(fine.Type, fine.Amount)
		slog.Info("Late return fined", "transaction_id", req.TransactionID, "overdue_days", days, "amount", fine.Amount.StringFixed(2))
	}
	slog.Info("Copy checked in", "transaction_id", req.TransactionID)

	loan, err := e.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	return &CheckinResult{Loan: loan, Fine: fine}, nil
}

// MarkLostRequest declares the copy of an open loan lost.
type MarkLostRequest struct {
	TransactionID string
	Notes         string
	At            time.Time
}

// MarkLost closes an open loan as lost, sends the copy to maintenance and
// assesses the lost item fee.
func (e *Engine) MarkLost(ctx context.Context, req MarkLostRequest) (*CheckinResult, error) {
	const op = "circulation.MarkLost"
	at := instant(req.At)

	var fine *models.Fine
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		tx, err := q.GetTransaction(ctx, req.TransactionID)
		if err != nil {
			return missing(err, op, "transaction", req.TransactionID)
		}
		if !tx.Status.CanTransition(models.TxLost) {
			return ErrTransactionClosed.At(op, tx.ID)
		}
		if at.Before(tx.BorrowedDate) {
			return apperr.Invalidf(op, "lost date %s precedes borrowed date %s",
				at.Format(time.RFC3339), tx.BorrowedDate.Format(time.RFC3339))
		}

		prev := tx.Status
		tx.Status = models.TxLost
		tx.Notes = appendNote(tx.Notes, req.Notes)
		if err := q.UpdateTransaction(ctx, tx, prev); err != nil {
			return conflict(err, op, tx.ID)
		}
		if err := q.SetCopyStatus(ctx, tx.BookCopyID, models.CopyBorrowed, models.CopyMaintenance); err != nil {
			return conflict(err, op, tx.BookCopyID)
		}

		fine = &models.Fine{
			BorrowingID:  tx.ID,
			MemberID:     tx.MemberID,
			Type:         models.FineLost,
			Amount:       e.cfg.Fines.LostItemFee.Round(2),
			AssessedDate: at,
			Status:       models.FineUnpaid,
		}
		return q.CreateFine(ctx, fine)
	})
	if err != nil {
		slog.Warn("MarkLost rejected", "transaction_id", req.TransactionID, "error", err)
		return nil, err
	}

	e.obs.MarkedLost()
	e.obs.FineAssessed(fine.Type, fine.Amount)
	slog.Info("Copy marked lost", "transaction_id", req.TransactionID, "fine", fine.Amount.StringFixed(2))

	loan, err := e.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	return &CheckinResult{Loan: loan, Fine: fine}, nil
}

// conflict maps a failed conditional write to ErrConcurrentUpdate.
func conflict(err error, op, id string) error {
	if errors.Is(err, storage.ErrConflict) {
		return ErrConcurrentUpdate.At(op, id)
	}
	return err
}
