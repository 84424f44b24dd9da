// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage/sqlite"
)

// NewStore opens a fresh SQLite database in a temp directory.
func NewStore(t testing.TB) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "error in arranging test store")
	t.Cleanup(func() { store.Close() })
	return store
}

// GivenBook catalogues a book with n available copies.
func GivenBook(t testing.TB, store *sqlite.SQLiteStore, title string, n int) (*models.Book, []*models.BookCopy) {
	t.Helper()
	ctx := context.Background()

	book := &models.Book{Title: title, Author: "Author of " + title}
	require.NoError(t, store.CreateBook(ctx, book), "error in arranging test data")

	copies := make([]*models.BookCopy, n)
	for i := range copies {
		copies[i] = &models.BookCopy{BookID: book.ID, CopyNumber: i + 1}
		require.NoError(t, store.CreateCopy(ctx, copies[i]), "error in arranging test data")
	}
	return book, copies
}

// GivenMember registers an active member with the given borrowing limit.
func GivenMember(t testing.TB, store *sqlite.SQLiteStore, name string, maxBooks int) *models.Member {
	t.Helper()
	member := &models.Member{
		Name:     name,
		Email:    uuid.NewString() + "@example.com",
		MaxBooks: maxBooks,
		Status:   models.MemberActive,
	}
	require.NoError(t, store.CreateMember(context.Background(), member), "error in arranging test data")
	return member
}

// Day0 is a fixed reference instant for tests that need dates.
var Day0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

// Days returns Day0 shifted by n days.
func Days(n int) time.Time {
	return Day0.Add(time.Duration(n) * 24 * time.Hour)
}
