// Package catalog manages books and their physical copies.
//
// The borrowed status of a copy belongs to circulation: this package refuses
// to move a copy into or out of borrowed, and the circulation engine never
// calls SetCopyStatus.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

// Catalog is the catalog component.
type Catalog struct {
	store storage.Store
}

// New creates a Catalog backed by store.
func New(store storage.Store) *Catalog {
	return &Catalog{store: store}
}

// NewBook is the input of AddBook.
type NewBook struct {
	Title           string
	Author          string
	ISBN            string
	Genre           string
	PublicationYear int
	Description     string
}

func (b NewBook) validate(op string) error {
	if strings.TrimSpace(b.Title) == "" {
		return apperr.Invalidf(op, "title is required")
	}
	if strings.TrimSpace(b.Author) == "" {
		return apperr.Invalidf(op, "author is required")
	}
	if b.PublicationYear < 0 || b.PublicationYear > time.Now().Year()+1 {
		return apperr.Invalidf(op, "publication year %d out of range", b.PublicationYear)
	}
	return nil
}

// AddBook catalogues a new title.
func (c *Catalog) AddBook(ctx context.Context, in NewBook) (*models.Book, error) {
	const op = "catalog.AddBook"
	if err := in.validate(op); err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:           strings.TrimSpace(in.Title),
		Author:          strings.TrimSpace(in.Author),
		ISBN:            strings.TrimSpace(in.ISBN),
		Genre:           in.Genre,
		PublicationYear: in.PublicationYear,
		Description:     in.Description,
	}
	if err := c.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Conflictf(op, "isbn %s already catalogued", book.ISBN)
		}
		return nil, err
	}

	slog.Info("Book added", "book_id", book.ID, "title", book.Title)
	return book, nil
}

// GetBook returns a book by id.
func (c *Catalog) GetBook(ctx context.Context, bookID string) (*models.Book, error) {
	book, err := c.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, notFound(err, "catalog.GetBook", "book", bookID)
	}
	return book, nil
}

// UpdateBook replaces the metadata of an existing book.
func (c *Catalog) UpdateBook(ctx context.Context, bookID string, in NewBook) (*models.Book, error) {
	const op = "catalog.UpdateBook"
	if err := in.validate(op); err != nil {
		return nil, err
	}

	book, err := c.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, notFound(err, op, "book", bookID)
	}
	book.Title = strings.TrimSpace(in.Title)
	book.Author = strings.TrimSpace(in.Author)
	book.ISBN = strings.TrimSpace(in.ISBN)
	book.Genre = in.Genre
	book.PublicationYear = in.PublicationYear
	book.Description = in.Description

	if err := c.store.UpdateBook(ctx, book); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Conflictf(op, "isbn %s already catalogued", book.ISBN)
		}
		return nil, notFound(err, op, "book", bookID)
	}
	return book, nil
}

// ListBooks searches the catalogue.
func (c *Catalog) ListBooks(ctx context.Context, filter storage.BookFilter) ([]*models.Book, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, apperr.Invalidf("catalog.ListBooks", "limit and offset must not be negative")
	}
	return c.store.ListBooks(ctx, filter)
}

// DeleteBook removes a book, its copies and their history. It fails with a
// state conflict listing the open loans while any copy is borrowed.
func (c *Catalog) DeleteBook(ctx context.Context, bookID string) error {
	const op = "catalog.DeleteBook"
	err := c.store.WithTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetBook(ctx, bookID); err != nil {
			return notFound(err, op, "book", bookID)
		}
		open, err := q.OpenTransactionIDs(ctx, bookID, "")
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return apperr.Blocked(op, "book has borrowed copies", open)
		}
		return q.DeleteBook(ctx, bookID)
	})
	if err != nil {
		return err
	}

	slog.Info("Book deleted", "book_id", bookID)
	return nil
}

// AddCopy registers a new physical copy of a book with the next free copy
// number. An empty condition defaults to good.
func (c *Catalog) AddCopy(ctx context.Context, bookID string, condition models.CopyCondition) (*models.BookCopy, error) {
	const op = "catalog.AddCopy"
	if condition == "" {
		condition = models.ConditionGood
	}
	if !condition.Valid() {
		return nil, apperr.Invalidf(op, "unknown condition %q", condition)
	}

	bookCopy := &models.BookCopy{BookID: bookID, Status: models.CopyAvailable, Condition: condition}
	err := c.store.WithTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetBook(ctx, bookID); err != nil {
			return notFound(err, op, "book", bookID)
		}
		max, err := q.MaxCopyNumber(ctx, bookID)
		if err != nil {
			return err
		}
		bookCopy.CopyNumber = max + 1
		return q.CreateCopy(ctx, bookCopy)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Copy added", "book_id", bookID, "copy_id", bookCopy.ID, "copy_number", bookCopy.CopyNumber)
	return bookCopy, nil
}

// GetCopy returns a copy by id.
func (c *Catalog) GetCopy(ctx context.Context, copyID string) (*models.BookCopy, error) {
	bookCopy, err := c.store.GetCopy(ctx, copyID)
	if err != nil {
		return nil, notFound(err, "catalog.GetCopy", "copy", copyID)
	}
	return bookCopy, nil
}

// ListCopies returns every copy of a book ordered by copy number.
func (c *Catalog) ListCopies(ctx context.Context, bookID string) ([]*models.BookCopy, error) {
	return c.listCopies(ctx, "catalog.ListCopies", bookID, "")
}

// ListAvailableCopies returns the copies of a book that can be checked out.
func (c *Catalog) ListAvailableCopies(ctx context.Context, bookID string) ([]*models.BookCopy, error) {
	return c.listCopies(ctx, "catalog.ListAvailableCopies", bookID, models.CopyAvailable)
}

func (c *Catalog) listCopies(ctx context.Context, op, bookID string, status models.CopyStatus) ([]*models.BookCopy, error) {
	if _, err := c.store.GetBook(ctx, bookID); err != nil {
		return nil, notFound(err, op, "book", bookID)
	}
	return c.store.ListCopies(ctx, bookID, status)
}

// NextCopyNumber returns the number the next copy of a book will receive.
func (c *Catalog) NextCopyNumber(ctx context.Context, bookID string) (int, error) {
	if _, err := c.store.GetBook(ctx, bookID); err != nil {
		return 0, notFound(err, "catalog.NextCopyNumber", "book", bookID)
	}
	max, err := c.store.MaxCopyNumber(ctx, bookID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// SetCopyStatus performs an administrative status change: sending a copy to
// maintenance or bringing it back. Setting the current status is a no-op.
func (c *Catalog) SetCopyStatus(ctx context.Context, copyID string, status models.CopyStatus) error {
	const op = "catalog.SetCopyStatus"
	if !status.Valid() {
		return apperr.Invalidf(op, "unknown copy status %q", status)
	}

	bookCopy, err := c.store.GetCopy(ctx, copyID)
	if err != nil {
		return notFound(err, op, "copy", copyID)
	}
	if bookCopy.Status == status {
		return nil
	}
	if bookCopy.Status == models.CopyBorrowed || status == models.CopyBorrowed {
		return apperr.Conflictf(op, "invalid transition %s -> %s: borrowed status is managed by circulation", bookCopy.Status, status)
	}
	if !bookCopy.Status.CanTransition(status) {
		return apperr.Conflictf(op, "invalid transition %s -> %s", bookCopy.Status, status)
	}

	if err := c.store.SetCopyStatus(ctx, copyID, bookCopy.Status, status); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return apperr.Conflictf(op, "copy %s changed status concurrently", copyID)
		}
		return err
	}

	slog.Info("Copy status changed", "copy_id", copyID, "from", bookCopy.Status, "to", status)
	return nil
}

// SetCopyCondition records the physical condition of a copy.
func (c *Catalog) SetCopyCondition(ctx context.Context, copyID string, condition models.CopyCondition) error {
	const op = "catalog.SetCopyCondition"
	if !condition.Valid() {
		return apperr.Invalidf(op, "unknown condition %q", condition)
	}
	if err := c.store.SetCopyCondition(ctx, copyID, condition); err != nil {
		return notFound(err, op, "copy", copyID)
	}
	return nil
}

// notFound turns storage.ErrNotFound into a domain NotFound error.
func notFound(err error, op, what, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFoundf(op, "%s %s not found", what, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
