package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/circulation"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage/sqlite"
	"github.com/mmynk/shelfkeeper/internal/testutil"
)

type library struct {
	store   *sqlite.SQLiteStore
	engine  *circulation.Engine
	stats   *Engine
	ada     *models.Member
	grace   *models.Member
	dune    *models.Book
	emma    *models.Book
	duneCps []*models.BookCopy
	emmaCps []*models.BookCopy
}

func newLibrary(t *testing.T) *library {
	t.Helper()
	store := testutil.NewStore(t)
	engine, err := circulation.New(store, circulation.DefaultConfig())
	require.NoError(t, err)

	lib := &library{store: store, engine: engine, stats: New(store)}
	lib.dune, lib.duneCps = testutil.GivenBook(t, store, "Dune", 3)
	lib.emma, lib.emmaCps = testutil.GivenBook(t, store, "Emma", 2)
	lib.ada = testutil.GivenMember(t, store, "Ada", 3)
	lib.grace = testutil.GivenMember(t, store, "Grace", 2)
	return lib
}

func (l *library) lend(t *testing.T, m *models.Member, c *models.BookCopy, day int) *models.Loan {
	t.Helper()
	loan, err := l.engine.Checkout(context.Background(), circulation.CheckoutRequest{
		MemberID: m.ID,
		CopyID:   c.ID,
		At:       testutil.Days(day),
	})
	require.NoError(t, err)
	return loan
}

func (l *library) giveBack(t *testing.T, loan *models.Loan, day int) {
	t.Helper()
	_, err := l.engine.Checkin(context.Background(), circulation.CheckinRequest{TransactionID: loan.ID, At: testutil.Days(day)})
	require.NoError(t, err)
}

func TestParseTimeframe(t *testing.T) {
	for _, s := range []string{"week", "month", "quarter", "year", "all"} {
		tf, err := ParseTimeframe(s)
		require.NoError(t, err)
		assert.Equal(t, Timeframe(s), tf)
	}

	tf, err := ParseTimeframe("")
	require.NoError(t, err)
	assert.Equal(t, AllTime, tf)

	_, err = ParseTimeframe("decade")
	assert.True(t, apperr.Is(err, apperr.Validation))

	now := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, AllTime.Since(now))
	assert.Equal(t, time.Date(2024, 5, 24, 0, 0, 0, 0, time.UTC), *Week.Since(now))
	assert.Equal(t, time.Date(2023, 5, 31, 0, 0, 0, 0, time.UTC), *Year.Since(now))
}

func TestPopularBooks(t *testing.T) {
	lib := newLibrary(t)
	ctx := context.Background()

	// Dune: two borrows by one member. Emma: two borrows by two members.
	l1 := lib.lend(t, lib.ada, lib.duneCps[0], 0)
	lib.giveBack(t, l1, 1)
	l2 := lib.lend(t, lib.ada, lib.duneCps[0], 2)
	lib.giveBack(t, l2, 3)
	lib.lend(t, lib.ada, lib.emmaCps[0], 40)
	lib.lend(t, lib.grace, lib.emmaCps[1], 41)

	got, err := lib.stats.PopularBooks(ctx, AllTime, 0, testutil.Days(42))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Emma", got[0].Title, "equal counts break ties on distinct borrowers")
	assert.Equal(t, 2, got[0].UniqueBorrowers)
	assert.Equal(t, "Dune", got[1].Title)
	assert.Equal(t, 2, got[1].BorrowCount)

	got, err = lib.stats.PopularBooks(ctx, Week, 10, testutil.Days(42))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, lib.emma.ID, got[0].BookID)

	got, err = lib.stats.PopularBooks(ctx, AllTime, 1, testutil.Days(42))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = lib.stats.PopularBooks(ctx, AllTime, MaxPopularLimit+1, testutil.Days(42))
	assert.True(t, apperr.Is(err, apperr.Validation))
	_, err = lib.stats.PopularBooks(ctx, "decade", 5, testutil.Days(42))
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestPopularBooksExcludesLoansAfterNow(t *testing.T) {
	lib := newLibrary(t)
	ctx := context.Background()

	lib.lend(t, lib.ada, lib.duneCps[0], 8)
	lib.lend(t, lib.grace, lib.emmaCps[0], 30)

	for _, tf := range []Timeframe{Week, AllTime} {
		got, err := lib.stats.PopularBooks(ctx, tf, 10, testutil.Days(10))
		require.NoError(t, err)
		require.Len(t, got, 1, "timeframe %s", tf)
		assert.Equal(t, "Dune", got[0].Title)
	}

	got, err := lib.stats.PopularBooks(ctx, Week, 10, testutil.Days(5))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPopularBooksTitleTieBreak(t *testing.T) {
	lib := newLibrary(t)

	lib.lend(t, lib.ada, lib.emmaCps[0], 0)
	lib.lend(t, lib.ada, lib.duneCps[0], 0)

	got, err := lib.stats.PopularBooks(context.Background(), AllTime, 10, testutil.Days(1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Dune", got[0].Title)
	assert.Equal(t, "Emma", got[1].Title)
}

func TestMemberActivity(t *testing.T) {
	lib := newLibrary(t)
	ctx := context.Background()

	late := lib.lend(t, lib.ada, lib.duneCps[0], 0)
	lib.lend(t, lib.ada, lib.duneCps[1], 0)
	lost := lib.lend(t, lib.ada, lib.emmaCps[0], 0)
	_, err := lib.engine.SweepOverdue(ctx, testutil.Days(15))
	require.NoError(t, err)
	lib.giveBack(t, late, 18)
	_, err = lib.engine.MarkLost(ctx, circulation.MarkLostRequest{TransactionID: lost.ID, At: testutil.Days(19)})
	require.NoError(t, err)

	act, err := lib.stats.MemberActivity(ctx, lib.ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, act.TotalBorrows)
	assert.Equal(t, 1, act.CurrentBorrows)
	assert.Equal(t, 1, act.OverdueCount)
	assert.Equal(t, 1, act.ReturnedCount)
	assert.Equal(t, 1, act.LostCount)
	assert.Equal(t, "27.00", act.UnpaidFines.StringFixed(2), "2.00 late fee plus 25.00 lost fee")

	_, err = lib.stats.MemberActivity(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestLibraryStatsAndDashboard(t *testing.T) {
	lib := newLibrary(t)
	ctx := context.Background()

	lib.lend(t, lib.grace, lib.duneCps[0], 0)
	lib.lend(t, lib.grace, lib.emmaCps[0], 10)
	returned := lib.lend(t, lib.ada, lib.duneCps[1], 0)
	lib.giveBack(t, returned, 5)
	require.NoError(t, lib.store.SetCopyStatus(ctx, lib.duneCps[2].ID, models.CopyAvailable, models.CopyMaintenance))

	stats, err := lib.stats.LibraryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalBooks)
	assert.Equal(t, 5, stats.TotalCopies)
	assert.Equal(t, 2, stats.CopiesByStatus[models.CopyBorrowed])
	assert.Equal(t, 1, stats.CopiesByStatus[models.CopyMaintenance])
	assert.Equal(t, 2, stats.TotalMembers)
	assert.Equal(t, 3, stats.TotalTransactions)
	assert.Equal(t, 2, stats.ActiveBorrows)
	assert.Equal(t, 0, stats.Overdue)
	assert.True(t, stats.UnpaidFines.IsZero())

	d, err := lib.stats.Dashboard(ctx, testutil.Days(16))
	require.NoError(t, err)
	assert.Equal(t, stats, d.Summary)
	assert.Len(t, d.RecentActivity, 3)
	assert.Equal(t, lib.emma.ID, d.RecentActivity[0].BookID, "newest first")

	require.Len(t, d.Alerts.OverdueLoans, 1, "past due before the sweep ran")
	assert.Equal(t, 2, d.Alerts.OverdueLoans[0].DaysOverdue)
	assert.Equal(t, lib.grace.ID, d.Alerts.OverdueLoans[0].MemberID)

	require.Len(t, d.Alerts.MembersAtLimit, 1)
	assert.Equal(t, lib.grace.ID, d.Alerts.MembersAtLimit[0].MemberID)
	assert.Equal(t, 2, d.Alerts.MembersAtLimit[0].OpenLoans)

	require.Len(t, d.Alerts.CopiesInMaintenance, 1)
	assert.Equal(t, lib.duneCps[2].ID, d.Alerts.CopiesInMaintenance[0].ID)
}
