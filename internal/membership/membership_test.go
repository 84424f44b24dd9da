package membership

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/calculator"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/testutil"
)

func TestEvaluate(t *testing.T) {
	owes := func(amount string) calculator.FineBalance {
		return calculator.CalculateFineBalance("m", []*models.Fine{{
			MemberID: "m",
			Type:     models.FineLateReturn,
			Status:   models.FineUnpaid,
			Amount:   decimal.RequireFromString(amount),
		}})
	}
	clean := calculator.CalculateFineBalance("m", nil)

	tests := []struct {
		name      string
		status    models.MemberStatus
		open      int
		bal       calculator.FineBalance
		threshold string
		want      []string
	}{
		{"active under limit", models.MemberActive, 2, clean, "0", nil},
		{"at limit", models.MemberActive, 3, clean, "0", []string{ReasonAtLimit}},
		{"suspended", models.MemberSuspended, 0, clean, "0", []string{ReasonSuspended}},
		{"expired and owing", models.MemberExpired, 0, owes("0.50"), "0", []string{ReasonExpired, ReasonUnpaidFine}},
		{"owing within threshold", models.MemberActive, 0, owes("0.50"), "1.00", nil},
		{"everything wrong", models.MemberSuspended, 5, owes("3.00"), "1.00", []string{ReasonSuspended, ReasonAtLimit, ReasonUnpaidFine}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &models.Member{ID: "m", Status: tt.status, MaxBooks: 3}
			got := Evaluate(m, tt.open, tt.bal, decimal.RequireFromString(tt.threshold))
			assert.Equal(t, tt.want, got.Reasons)
			assert.Equal(t, len(tt.want) == 0, got.Eligible)
		})
	}
}

func TestEvaluateIgnoresNonBlockingFines(t *testing.T) {
	bal := calculator.CalculateFineBalance("m", []*models.Fine{
		{MemberID: "m", Type: models.FineLost, Status: models.FineUnpaid, Amount: decimal.NewFromInt(25)},
		{MemberID: "m", Type: models.FineLateReturn, Status: models.FineDisputed, Amount: decimal.NewFromInt(2)},
	})
	m := &models.Member{ID: "m", Status: models.MemberActive, MaxBooks: 3}

	got := Evaluate(m, 0, bal, decimal.Zero)
	assert.True(t, got.Eligible, "reasons: %v", got.Reasons)
	assert.True(t, got.Balance.Outstanding.Equal(decimal.NewFromInt(27)))
}

func TestRegister(t *testing.T) {
	r := New(testutil.NewStore(t), decimal.Zero)
	ctx := context.Background()

	m, err := r.Register(ctx, NewMember{Name: " Ada ", Email: "Ada@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", m.Name)
	assert.Equal(t, "ada@example.com", m.Email)
	assert.Equal(t, models.MemberActive, m.Status)
	assert.Equal(t, models.DefaultMaxBooks, m.MaxBooks)

	_, err = r.Register(ctx, NewMember{Name: "Imposter", Email: "ada@example.com"})
	assert.True(t, apperr.Is(err, apperr.StateConflict), "duplicate email: %v", err)

	invalid := []NewMember{
		{Name: "", Email: "x@example.com"},
		{Name: "X", Email: "not-an-email"},
		{Name: "X", Email: "y@example.com", MaxBooks: 11},
		{Name: "X", Email: "z@example.com", MaxBooks: -1},
	}
	for _, in := range invalid {
		_, err := r.Register(ctx, in)
		assert.True(t, apperr.Is(err, apperr.Validation), "%+v: %v", in, err)
	}
}

func TestIsEligible(t *testing.T) {
	store := testutil.NewStore(t)
	r := New(store, decimal.Zero)
	ctx := context.Background()

	member := testutil.GivenMember(t, store, "Ada", 1)
	_, copies := testutil.GivenBook(t, store, "Emma", 1)

	e, err := r.IsEligible(ctx, member.ID)
	require.NoError(t, err)
	assert.True(t, e.Eligible)

	require.NoError(t, store.CreateTransaction(ctx, &models.Transaction{
		MemberID:     member.ID,
		BookCopyID:   copies[0].ID,
		BorrowedDate: testutil.Day0,
		DueDate:      testutil.Days(14),
	}))
	_, err = r.UpdateStatus(ctx, member.ID, models.MemberSuspended)
	require.NoError(t, err)

	e, err = r.IsEligible(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, e.Eligible)
	assert.Equal(t, []string{ReasonSuspended, ReasonAtLimit}, e.Reasons)

	_, err = r.IsEligible(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestStatusCountsPastDueLoans(t *testing.T) {
	store := testutil.NewStore(t)
	r := New(store, decimal.Zero)
	ctx := context.Background()

	member := testutil.GivenMember(t, store, "Ada", 3)
	_, copies := testutil.GivenBook(t, store, "Emma", 2)
	for _, c := range copies {
		require.NoError(t, store.CreateTransaction(ctx, &models.Transaction{
			MemberID:     member.ID,
			BookCopyID:   c.ID,
			BorrowedDate: testutil.Day0,
			DueDate:      testutil.Days(14),
		}))
	}

	st, err := r.Status(ctx, member.ID, testutil.Days(10))
	require.NoError(t, err)
	assert.Equal(t, 2, st.CurrentBorrowed)
	assert.Equal(t, 0, st.OverdueCount)
	assert.True(t, st.CanBorrow)
	assert.Len(t, st.ActiveTransactions, 2)

	st, err = r.Status(ctx, member.ID, testutil.Days(14).Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, st.OverdueCount)
}

func TestDeleteMember(t *testing.T) {
	store := testutil.NewStore(t)
	r := New(store, decimal.Zero)
	ctx := context.Background()

	member := testutil.GivenMember(t, store, "Ada", 3)
	_, copies := testutil.GivenBook(t, store, "Emma", 1)
	loan := &models.Transaction{
		MemberID:     member.ID,
		BookCopyID:   copies[0].ID,
		BorrowedDate: testutil.Day0,
		DueDate:      testutil.Days(14),
	}
	require.NoError(t, store.CreateTransaction(ctx, loan))

	err := r.DeleteMember(ctx, member.ID)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.StateConflict, appErr.Kind)
	assert.Equal(t, []string{loan.ID}, appErr.IDs)

	returned := testutil.Days(2)
	loan.Status = models.TxReturned
	loan.ReturnedDate = &returned
	require.NoError(t, store.UpdateTransaction(ctx, loan, models.TxActive))

	require.NoError(t, r.DeleteMember(ctx, member.ID))
	_, err = r.GetMember(ctx, member.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
