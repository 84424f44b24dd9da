// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/models"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional write matched no row
	// (the row changed state underneath) or a uniqueness rule was violated.
	ErrConflict = errors.New("conflict")
)

// Queries is the set of reads and writes available both directly on a Store
// and inside a transaction opened with Store.WithTx.
type Queries interface {
	CatalogQueries
	MemberQueries
	CirculationQueries
}

// CatalogQueries covers books and copies.
type CatalogQueries interface {
	// CreateBook persists a book; ID and CreatedAt are filled when empty.
	CreateBook(ctx context.Context, book *models.Book) error
	GetBook(ctx context.Context, id string) (*models.Book, error)
	UpdateBook(ctx context.Context, book *models.Book) error
	ListBooks(ctx context.Context, filter BookFilter) ([]*models.Book, error)
	DeleteBook(ctx context.Context, id string) error

	// CreateCopy persists a copy. CopyNumber must already be assigned.
	CreateCopy(ctx context.Context, copy *models.BookCopy) error
	GetCopy(ctx context.Context, id string) (*models.BookCopy, error)
	// ListCopies filters by book and status; empty values match everything.
	ListCopies(ctx context.Context, bookID string, status models.CopyStatus) ([]*models.BookCopy, error)

	// MaxCopyNumber returns the highest copy number of a book, 0 if none.
	MaxCopyNumber(ctx context.Context, bookID string) (int, error)

	// SetCopyStatus moves a copy from one status to another. It returns
	// ErrConflict when the copy is not currently in status from.
	SetCopyStatus(ctx context.Context, id string, from, to models.CopyStatus) error
	SetCopyCondition(ctx context.Context, id string, condition models.CopyCondition) error
}

// MemberQueries covers members and librarians.
type MemberQueries interface {
	// CreateMember persists a member; returns ErrConflict on duplicate email.
	CreateMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, id string) (*models.Member, error)
	ListMembers(ctx context.Context, status models.MemberStatus) ([]*models.Member, error)
	UpdateMemberStatus(ctx context.Context, id string, status models.MemberStatus) error
	DeleteMember(ctx context.Context, id string) error

	CreateLibrarian(ctx context.Context, librarian *models.Librarian) error
	// GetLibrarianByEmail returns nil, nil when no librarian has the email.
	GetLibrarianByEmail(ctx context.Context, email string) (*models.Librarian, error)
	GetLibrarianByID(ctx context.Context, id string) (*models.Librarian, error)
}

// CirculationQueries covers borrowing transactions, fines and reservations.
type CirculationQueries interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	GetLoan(ctx context.Context, id string) (*models.Loan, error)

	// UpdateTransaction writes every mutable column of tx, provided the
	// stored status still equals expected. Otherwise it returns ErrConflict.
	UpdateTransaction(ctx context.Context, tx *models.Transaction, expected models.TransactionStatus) error

	ListLoans(ctx context.Context, filter TransactionFilter) ([]*models.Loan, error)
	CountOpenLoans(ctx context.Context, memberID string) (int, error)

	// OpenTransactionIDs lists active or overdue transaction ids for a
	// book or a member (exactly one of the two must be set).
	OpenTransactionIDs(ctx context.Context, bookID, memberID string) ([]string, error)

	// OverdueCandidates lists active transactions due strictly before now.
	OverdueCandidates(ctx context.Context, now time.Time) ([]string, error)

	// MarkOverdue flips one transaction from active to overdue. It reports
	// false when the row was no longer active.
	MarkOverdue(ctx context.Context, id string) (bool, error)

	CreateFine(ctx context.Context, fine *models.Fine) error
	GetFine(ctx context.Context, id string) (*models.Fine, error)
	UpdateFine(ctx context.Context, fine *models.Fine, expected models.FineStatus) error
	ListFines(ctx context.Context, filter FineFilter) ([]*models.Fine, error)

	CreateReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	// PendingReservations lists a book's pending holds, oldest first.
	PendingReservations(ctx context.Context, bookID string) ([]*models.Reservation, error)
	// PendingReservationFor returns nil, nil when the member holds nothing.
	PendingReservationFor(ctx context.Context, bookID, memberID string) (*models.Reservation, error)
	FulfillReservation(ctx context.Context, id string, at time.Time) error
	CancelReservation(ctx context.Context, id string, at time.Time) error
}

// Analytics is the read-only aggregation surface.
type Analytics interface {
	PopularBooks(ctx context.Context, since *time.Time, until time.Time, limit int) ([]PopularBook, error)
	CountBooks(ctx context.Context) (int, error)
	CopyStatusCounts(ctx context.Context) (map[models.CopyStatus]int, error)
	MemberStatusCounts(ctx context.Context) (map[models.MemberStatus]int, error)
	TransactionStatusCounts(ctx context.Context, memberID string) (map[models.TransactionStatus]int, error)
	OutstandingFineTotal(ctx context.Context) (decimal.Decimal, error)
	MembersAtLimit(ctx context.Context) ([]MemberLoad, error)
}

// Store is the full persistence surface used by the engines.
type Store interface {
	Queries
	Analytics

	// WithTx runs fn inside one storage transaction. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}

// BookFilter narrows ListBooks. Zero values mean no filtering.
type BookFilter struct {
	Query  string // matched against title, author and isbn
	Genre  string
	Limit  int
	Offset int
}

// TransactionFilter narrows ListLoans. Zero values mean no filtering.
type TransactionFilter struct {
	MemberID string
	BookID   string
	CopyID   string
	Statuses []models.TransactionStatus
	Limit    int

	// Newest orders by borrowed_date descending instead of due_date ascending.
	Newest bool
}

// FineFilter narrows ListFines.
type FineFilter struct {
	MemberID      string
	TransactionID string
	Statuses      []models.FineStatus
}

// PopularBook is one row of the popularity ranking.
type PopularBook struct {
	BookID          string `db:"book_id"`
	Title           string `db:"title"`
	Author          string `db:"author"`
	BorrowCount     int    `db:"borrow_count"`
	UniqueBorrowers int    `db:"unique_borrowers"`
}

// MemberLoad is a member together with their open loan count.
type MemberLoad struct {
	MemberID  string `db:"member_id"`
	Name      string `db:"name"`
	MaxBooks  int    `db:"max_books"`
	OpenLoans int    `db:"open_loans"`
}
