package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/testutil"
)

func TestAddBookAndCopies(t *testing.T) {
	store := testutil.NewStore(t)
	c := New(store)
	ctx := context.Background()

	book, err := c.AddBook(ctx, NewBook{Title: " Dune ", Author: "Frank Herbert", ISBN: "9780441013593"})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)

	next, err := c.NextCopyNumber(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	first, err := c.AddCopy(ctx, book.ID, "")
	require.NoError(t, err)
	second, err := c.AddCopy(ctx, book.ID, models.ConditionExcellent)
	require.NoError(t, err)

	assert.Equal(t, 1, first.CopyNumber)
	assert.Equal(t, 2, second.CopyNumber)
	assert.Equal(t, models.ConditionGood, first.Condition)
	assert.Equal(t, models.CopyAvailable, second.Status)

	next, err = c.NextCopyNumber(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	_, err = c.AddBook(ctx, NewBook{Title: "Copycat", Author: "X", ISBN: "9780441013593"})
	assert.True(t, apperr.Is(err, apperr.StateConflict), "duplicate isbn: %v", err)
}

func TestAddBookValidation(t *testing.T) {
	c := New(testutil.NewStore(t))

	tests := []struct {
		name string
		in   NewBook
	}{
		{"missing title", NewBook{Author: "A"}},
		{"blank author", NewBook{Title: "T", Author: "  "}},
		{"negative year", NewBook{Title: "T", Author: "A", PublicationYear: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AddBook(context.Background(), tt.in)
			assert.True(t, apperr.Is(err, apperr.Validation), "got %v", err)
		})
	}
}

func TestUnknownIDs(t *testing.T) {
	c := New(testutil.NewStore(t))
	ctx := context.Background()

	_, err := c.GetCopy(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = c.ListAvailableCopies(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = c.NextCopyNumber(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = c.AddCopy(ctx, "missing", models.ConditionGood)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	err = c.SetCopyStatus(ctx, "missing", models.CopyMaintenance)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	err = c.DeleteBook(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSetCopyStatus(t *testing.T) {
	store := testutil.NewStore(t)
	c := New(store)
	ctx := context.Background()
	book, copies := testutil.GivenBook(t, store, "Emma", 2)

	require.NoError(t, c.SetCopyStatus(ctx, copies[0].ID, models.CopyMaintenance))

	available, err := c.ListAvailableCopies(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, copies[1].ID, available[0].ID)

	// Same status is a no-op.
	require.NoError(t, c.SetCopyStatus(ctx, copies[0].ID, models.CopyMaintenance))

	err = c.SetCopyStatus(ctx, copies[0].ID, models.CopyBorrowed)
	assert.True(t, apperr.Is(err, apperr.StateConflict), "maintenance -> borrowed: %v", err)

	err = c.SetCopyStatus(ctx, copies[1].ID, models.CopyBorrowed)
	assert.True(t, apperr.Is(err, apperr.StateConflict), "available -> borrowed: %v", err)

	err = c.SetCopyStatus(ctx, copies[1].ID, "shelved")
	assert.True(t, apperr.Is(err, apperr.Validation))

	require.NoError(t, c.SetCopyStatus(ctx, copies[0].ID, models.CopyAvailable))
	got, err := c.GetCopy(ctx, copies[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.CopyAvailable, got.Status)
}

func TestDeleteBookBlockedByOpenLoan(t *testing.T) {
	store := testutil.NewStore(t)
	c := New(store)
	ctx := context.Background()
	book, copies := testutil.GivenBook(t, store, "Persuasion", 1)
	member := testutil.GivenMember(t, store, "Ada", 3)

	loan := &models.Transaction{
		MemberID:     member.ID,
		BookCopyID:   copies[0].ID,
		BorrowedDate: testutil.Day0,
		DueDate:      testutil.Days(14),
	}
	require.NoError(t, store.CreateTransaction(ctx, loan))

	err := c.DeleteBook(ctx, book.ID)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "got %v", err)
	assert.Equal(t, apperr.StateConflict, appErr.Kind)
	assert.Equal(t, []string{loan.ID}, appErr.IDs)

	returned := testutil.Days(3)
	loan.Status = models.TxReturned
	loan.ReturnedDate = &returned
	require.NoError(t, store.UpdateTransaction(ctx, loan, models.TxActive))

	require.NoError(t, c.DeleteBook(ctx, book.ID))
	_, err = c.GetBook(ctx, book.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	_, err = c.GetCopy(ctx, copies[0].ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestUpdateBook(t *testing.T) {
	store := testutil.NewStore(t)
	c := New(store)
	ctx := context.Background()
	book, _ := testutil.GivenBook(t, store, "Draft", 0)

	updated, err := c.UpdateBook(ctx, book.ID, NewBook{Title: "Final", Author: "Someone", Genre: "essay", PublicationYear: 1999})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)

	got, err := c.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "essay", got.Genre)
	assert.Equal(t, 1999, got.PublicationYear)

	_, err = c.UpdateBook(ctx, "missing", NewBook{Title: "T", Author: "A"})
	assert.True(t, apperr.Is(err, apperr.NotFound))
}
