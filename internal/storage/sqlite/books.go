package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

type bookRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Author          string         `db:"author"`
	ISBN            sql.NullString `db:"isbn"`
	Genre           string         `db:"genre"`
	PublicationYear sql.NullInt64  `db:"publication_year"`
	Description     string         `db:"description"`
	CreatedAt       int64          `db:"created_at"`
}

func (r *bookRow) model() *models.Book {
	return &models.Book{
		ID:              r.ID,
		Title:           r.Title,
		Author:          r.Author,
		ISBN:            r.ISBN.String,
		Genre:           r.Genre,
		PublicationYear: int(r.PublicationYear.Int64),
		Description:     r.Description,
		CreatedAt:       fromUnix(r.CreatedAt),
	}
}

type copyRow struct {
	ID         string `db:"id"`
	BookID     string `db:"book_id"`
	CopyNumber int    `db:"copy_number"`
	Status     string `db:"status"`
	Condition  string `db:"condition"`
	CreatedAt  int64  `db:"created_at"`
}

func (r *copyRow) model() *models.BookCopy {
	return &models.BookCopy{
		ID:         r.ID,
		BookID:     r.BookID,
		CopyNumber: r.CopyNumber,
		Status:     models.CopyStatus(r.Status),
		Condition:  models.CopyCondition(r.Condition),
		CreatedAt:  fromUnix(r.CreatedAt),
	}
}

const bookColumns = `id, title, author, isbn, genre, publication_year, description, created_at`

const copyColumns = `id, book_id, copy_number, status, condition, created_at`

// CreateBook persists a new book.
func (q *queries) CreateBook(ctx context.Context, book *models.Book) error {
	// Generate ID if not set
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	var year sql.NullInt64
	if book.PublicationYear != 0 {
		year = sql.NullInt64{Int64: int64(book.PublicationYear), Valid: true}
	}

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author, nullString(book.ISBN), book.Genre, year,
		book.Description, book.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", translate(err))
	}
	return nil
}

// GetBook retrieves a book by ID.
func (q *queries) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var row bookRow
	if err := q.getOne(ctx, &row, "book "+id, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// UpdateBook rewrites a book's metadata.
func (q *queries) UpdateBook(ctx context.Context, book *models.Book) error {
	var year sql.NullInt64
	if book.PublicationYear != 0 {
		year = sql.NullInt64{Int64: int64(book.PublicationYear), Valid: true}
	}
	err := q.execOne(ctx, fmt.Errorf("book %s: %w", book.ID, storage.ErrNotFound),
		`UPDATE books SET title = ?, author = ?, isbn = ?, genre = ?, publication_year = ?, description = ?
		 WHERE id = ?`,
		book.Title, book.Author, nullString(book.ISBN), book.Genre, year, book.Description, book.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// ListBooks returns books ordered by title.
func (q *queries) ListBooks(ctx context.Context, filter storage.BookFilter) ([]*models.Book, error) {
	ds := dialect.From("books").
		Select(goqu.C("id"), goqu.C("title"), goqu.C("author"), goqu.C("isbn"), goqu.C("genre"),
			goqu.C("publication_year"), goqu.C("description"), goqu.C("created_at")).
		Order(goqu.C("title").Asc(), goqu.C("id").Asc())

	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		ds = ds.Where(goqu.Or(
			goqu.L(`title LIKE ? ESCAPE '\'`, pattern),
			goqu.L(`author LIKE ? ESCAPE '\'`, pattern),
			goqu.L(`isbn LIKE ? ESCAPE '\'`, pattern),
		))
	}
	if filter.Genre != "" {
		ds = ds.Where(goqu.C("genre").Eq(filter.Genre))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	var rows []bookRow
	if err := q.selectInto(ctx, &rows, ds); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]*models.Book, len(rows))
	for i := range rows {
		books[i] = rows[i].model()
	}
	return books, nil
}

// DeleteBook removes a book and, by cascade, its copies and their closed
// loan history. Callers must check for open loans first.
func (q *queries) DeleteBook(ctx context.Context, id string) error {
	err := q.execOne(ctx, fmt.Errorf("book %s: %w", id, storage.ErrNotFound),
		`DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

// CreateCopy persists a new copy.
func (q *queries) CreateCopy(ctx context.Context, c *models.BookCopy) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if c.Status == "" {
		c.Status = models.CopyAvailable
	}
	if c.Condition == "" {
		c.Condition = models.ConditionGood
	}

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO book_copies (`+copyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.BookID, c.CopyNumber, string(c.Status), string(c.Condition), c.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert copy: %w", translate(err))
	}
	return nil
}

// GetCopy retrieves a copy by ID.
func (q *queries) GetCopy(ctx context.Context, id string) (*models.BookCopy, error) {
	var row copyRow
	if err := q.getOne(ctx, &row, "copy "+id, `SELECT `+copyColumns+` FROM book_copies WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// ListCopies returns copies ordered by book and copy number. An empty
// bookID or status matches every value.
func (q *queries) ListCopies(ctx context.Context, bookID string, status models.CopyStatus) ([]*models.BookCopy, error) {
	ds := dialect.From("book_copies").
		Select(goqu.C("id"), goqu.C("book_id"), goqu.C("copy_number"), goqu.C("status"), goqu.C("condition"), goqu.C("created_at")).
		Order(goqu.C("book_id").Asc(), goqu.C("copy_number").Asc())
	if bookID != "" {
		ds = ds.Where(goqu.C("book_id").Eq(bookID))
	}
	if status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(status)))
	}

	var rows []copyRow
	if err := q.selectInto(ctx, &rows, ds); err != nil {
		return nil, fmt.Errorf("failed to list copies: %w", err)
	}

	copies := make([]*models.BookCopy, len(rows))
	for i := range rows {
		copies[i] = rows[i].model()
	}
	return copies, nil
}

// MaxCopyNumber returns the highest copy number for a book, or 0.
func (q *queries) MaxCopyNumber(ctx context.Context, bookID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q.ext, &n,
		`SELECT COALESCE(MAX(copy_number), 0) FROM book_copies WHERE book_id = ?`, bookID)
	if err != nil {
		return 0, fmt.Errorf("failed to read max copy number: %w", err)
	}
	return n, nil
}

// SetCopyStatus is a compare-and-set on the copy status.
func (q *queries) SetCopyStatus(ctx context.Context, id string, from, to models.CopyStatus) error {
	err := q.execOne(ctx, fmt.Errorf("copy %s not %s: %w", id, from, storage.ErrConflict),
		`UPDATE book_copies SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to set copy status: %w", err)
	}
	return nil
}

// SetCopyCondition records the physical condition of a copy.
func (q *queries) SetCopyCondition(ctx context.Context, id string, condition models.CopyCondition) error {
	err := q.execOne(ctx, fmt.Errorf("copy %s: %w", id, storage.ErrNotFound),
		`UPDATE book_copies SET condition = ? WHERE id = ?`, string(condition), id)
	if err != nil {
		return fmt.Errorf("failed to set copy condition: %w", err)
	}
	return nil
}
