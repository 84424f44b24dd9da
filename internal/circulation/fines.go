package circulation

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/calculator"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// PayFine records payment of an unpaid or disputed fine at at.
func (e *Engine) PayFine(ctx context.Context, fineID string, at time.Time) (*models.Fine, error) {
	paid := instant(at)
	return e.settle(ctx, "circulation.PayFine", fineID, models.FinePaid, func(f *models.Fine) error {
		if paid.Before(f.AssessedDate) {
			return apperr.Invalidf("circulation.PayFine", "payment date %s precedes assessment %s",
				paid.Format(time.RFC3339), f.AssessedDate.Format(time.RFC3339))
		}
		f.PaidDate = &paid
		return nil
	})
}

// WaiveFine forgives an unpaid or disputed fine.
func (e *Engine) WaiveFine(ctx context.Context, fineID, notes string) (*models.Fine, error) {
	return e.settle(ctx, "circulation.WaiveFine", fineID, models.FineWaived, func(f *models.Fine) error {
		f.Notes = appendNote(f.Notes, notes)
		return nil
	})
}

// DisputeFine marks an unpaid fine as contested. Disputed fines still count
// as outstanding but no longer block borrowing.
func (e *Engine) DisputeFine(ctx context.Context, fineID, notes string) (*models.Fine, error) {
	return e.settle(ctx, "circulation.DisputeFine", fineID, models.FineDisputed, func(f *models.Fine) error {
		f.Notes = appendNote(f.Notes, notes)
		return nil
	})
}

func (e *Engine) settle(ctx context.Context, op, fineID string, next models.FineStatus, apply func(*models.Fine) error) (*models.Fine, error) {
	var fine *models.Fine
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		f, err := q.GetFine(ctx, fineID)
		if err != nil {
			return missing(err, op, "fine", fineID)
		}
		if !f.Status.CanTransition(next) {
			return ErrFineSettled.At(op, f.ID)
		}
		if err := apply(f); err != nil {
			return err
		}

		prev := f.Status
		f.Status = next
		if err := q.UpdateFine(ctx, f, prev); err != nil {
			return conflict(err, op, f.ID)
		}
		fine = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.obs.FineSettled(next)
	slog.Info("Fine updated", "fine_id", fineID, "status", next)
	return fine, nil
}

// ListFines returns every fine of a member, oldest first.
func (e *Engine) ListFines(ctx context.Context, memberID string) ([]*models.Fine, error) {
	if _, err := e.store.GetMember(ctx, memberID); err != nil {
		return nil, missing(err, "circulation.ListFines", "member", memberID)
	}
	return e.store.ListFines(ctx, storage.FineFilter{MemberID: memberID})
}

// FineBalance totals a member's fines by outcome.
func (e *Engine) FineBalance(ctx context.Context, memberID string) (calculator.FineBalance, error) {
	fines, err := e.ListFines(ctx, memberID)
	if err != nil {
		return calculator.FineBalance{}, err
	}
	return calculator.CalculateFineBalance(memberID, fines), nil
}
