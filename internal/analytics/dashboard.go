package analytics

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// OverdueLoan is an open loan past its due date.
type OverdueLoan struct {
	*models.Loan
	DaysOverdue int
}

// Alerts lists what needs a librarian's attention.
type Alerts struct {
	OverdueLoans        []OverdueLoan
	MembersAtLimit      []storage.MemberLoad
	CopiesInMaintenance []*models.BookCopy
}

// Dashboard is the librarian landing view.
type Dashboard struct {
	GeneratedAt    time.Time
	Summary        *LibraryStats
	RecentActivity []*models.Loan
	Alerts         Alerts
}

// Dashboard assembles summary, recent activity and alerts as of now. A loan
// is reported overdue once past due at now, even before the sweep flags it.
func (e *Engine) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	d := &Dashboard{GeneratedAt: now.UTC().Truncate(time.Second)}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Summary, err = e.LibraryStats(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.RecentActivity, err = e.store.ListLoans(ctx, storage.TransactionFilter{
			Newest: true,
			Limit:  RecentActivityLimit,
		})
		return err
	})
	g.Go(func() error {
		open, err := e.store.ListLoans(ctx, storage.TransactionFilter{
			Statuses: []models.TransactionStatus{models.TxActive, models.TxOverdue},
		})
		if err != nil {
			return err
		}
		d.Alerts.OverdueLoans = []OverdueLoan{}
		for _, l := range open {
			if days := l.DaysOverdue(now); days > 0 {
				d.Alerts.OverdueLoans = append(d.Alerts.OverdueLoans, OverdueLoan{Loan: l, DaysOverdue: days})
			}
		}
		return nil
	})
	g.Go(func() (err error) {
		d.Alerts.MembersAtLimit, err = e.store.MembersAtLimit(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Alerts.CopiesInMaintenance, err = e.store.ListCopies(ctx, "", models.CopyMaintenance)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analytics.Dashboard: %w", err)
	}
	return d, nil
}
