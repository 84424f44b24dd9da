package circulation

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// Renew extends an open loan by one loan period. A loan can be renewed
// MaxRenewals times, and not while anyone holds the book. An overdue loan
// stays overdue after renewal.
func (e *Engine) Renew(ctx context.Context, transactionID string) (*models.Loan, error) {
	const op = "circulation.Renew"

	var renewals int
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		tx, err := q.GetTransaction(ctx, transactionID)
		if err != nil {
			return missing(err, op, "transaction", transactionID)
		}
		if !tx.Status.Open() {
			return ErrTransactionClosed.At(op, tx.ID)
		}
		if tx.RenewalCount >= models.MaxRenewals {
			return ErrRenewalLimit.At(op, tx.ID)
		}

		bookCopy, err := q.GetCopy(ctx, tx.BookCopyID)
		if err != nil {
			return missing(err, op, "copy", tx.BookCopyID)
		}
		holds, err := q.PendingReservations(ctx, bookCopy.BookID)
		if err != nil {
			return err
		}
		if len(holds) > 0 {
			ids := make([]string, len(holds))
			for i, h := range holds {
				ids[i] = h.ID
			}
			return ErrPendingReservations.At(op, ids...)
		}

		tx.DueDate = tx.DueDate.Add(e.cfg.LoanPeriod)
		tx.RenewalCount++
		renewals = tx.RenewalCount
		return conflict(q.UpdateTransaction(ctx, tx, tx.Status), op, tx.ID)
	})
	if err != nil {
		slog.Warn("Renew rejected", "transaction_id", transactionID, "error", err)
		return nil, err
	}

	e.obs.Renewed()
	slog.Info("Loan renewed", "transaction_id", transactionID, "renewal_count", renewals)
	return e.GetTransaction(ctx, transactionID)
}

// SweepResult summarises one overdue sweep.
type SweepResult struct {
	// Transitioned counts loans moved from active to overdue.
	Transitioned int
	// Skipped counts candidates that had already changed or failed to update.
	Skipped int
	// Overdue lists the ids of the transitioned loans.
	Overdue []string
}

// SweepOverdue flags every active loan due before now as overdue. Each row
// is updated on its own so one failure does not abort the sweep. Running it
// twice with the same now transitions nothing the second time. It assesses
// no fines.
func (e *Engine) SweepOverdue(ctx context.Context, now time.Time) (*SweepResult, error) {
	ids, err := e.store.OverdueCandidates(ctx, instant(now))
	if err != nil {
		return nil, err
	}

	res := &SweepResult{Overdue: []string{}}
	for _, id := range ids {
		ok, err := e.store.MarkOverdue(ctx, id)
		switch {
		case err != nil:
			slog.Warn("Sweep failed to flag loan", "transaction_id", id, "error", err)
			res.Skipped++
		case !ok:
			res.Skipped++
		default:
			res.Transitioned++
			res.Overdue = append(res.Overdue, id)
		}
	}

	e.obs.Swept(res.Transitioned, res.Skipped)
	slog.Info("Overdue sweep finished", "candidates", len(ids), "transitioned", res.Transitioned, "skipped", res.Skipped)
	return res, nil
}
