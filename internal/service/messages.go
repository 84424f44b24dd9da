package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/models"
)

// Wire representations of the domain entities. Money travels as a decimal
// string with two places.

type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Copy struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	CopyNumber int       `json:"copy_number"`
	Status     string    `json:"status"`
	Condition  string    `json:"condition"`
	CreatedAt  time.Time `json:"created_at"`
}

type Member struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Status      string    `json:"status"`
	MaxBooks    int       `json:"max_books"`
	MemberSince time.Time `json:"member_since"`
}

type Transaction struct {
	ID           string     `json:"id"`
	MemberID     string     `json:"member_id"`
	MemberName   string     `json:"member_name,omitempty"`
	BookCopyID   string     `json:"book_copy_id"`
	BookID       string     `json:"book_id,omitempty"`
	BookTitle    string     `json:"book_title,omitempty"`
	BookAuthor   string     `json:"book_author,omitempty"`
	CopyNumber   int        `json:"copy_number,omitempty"`
	BorrowedDate time.Time  `json:"borrowed_date"`
	DueDate      time.Time  `json:"due_date"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
	RenewalCount int        `json:"renewal_count"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	DaysOverdue  int        `json:"days_overdue,omitempty"`
}

type Fine struct {
	ID            string     `json:"id"`
	TransactionID string     `json:"transaction_id"`
	MemberID      string     `json:"member_id"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	AssessedDate  time.Time  `json:"assessed_date"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
}

type Reservation struct {
	ID          string     `json:"id"`
	BookID      string     `json:"book_id"`
	MemberID    string     `json:"member_id"`
	ReservedAt  time.Time  `json:"reserved_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type Librarian struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func bookMsg(b *models.Book) *Book {
	return &Book{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Genre:           b.Genre,
		PublicationYear: b.PublicationYear,
		Description:     b.Description,
		CreatedAt:       b.CreatedAt,
	}
}

func copyMsg(c *models.BookCopy) *Copy {
	return &Copy{
		ID:         c.ID,
		BookID:     c.BookID,
		CopyNumber: c.CopyNumber,
		Status:     string(c.Status),
		Condition:  string(c.Condition),
		CreatedAt:  c.CreatedAt,
	}
}

func copiesMsg(copies []*models.BookCopy) []*Copy {
	out := make([]*Copy, len(copies))
	for i, c := range copies {
		out[i] = copyMsg(c)
	}
	return out
}

func memberMsg(m *models.Member) *Member {
	return &Member{
		ID:          m.ID,
		Name:        m.Name,
		Email:       m.Email,
		Phone:       m.Phone,
		Address:     m.Address,
		Status:      string(m.Status),
		MaxBooks:    m.MaxBooks,
		MemberSince: m.MemberSince,
	}
}

func loanMsg(l *models.Loan, now time.Time) *Transaction {
	t := &Transaction{
		ID:           l.ID,
		MemberID:     l.MemberID,
		MemberName:   l.MemberName,
		BookCopyID:   l.BookCopyID,
		BookID:       l.BookID,
		BookTitle:    l.BookTitle,
		BookAuthor:   l.BookAuthor,
		CopyNumber:   l.CopyNumber,
		BorrowedDate: l.BorrowedDate,
		DueDate:      l.DueDate,
		ReturnedDate: l.ReturnedDate,
		RenewalCount: l.RenewalCount,
		Status:       string(l.Status),
		Notes:        l.Notes,
	}
	if l.Status.Open() {
		t.DaysOverdue = l.DaysOverdue(now)
	}
	return t
}

func loansMsg(loans []*models.Loan, now time.Time) []*Transaction {
	out := make([]*Transaction, len(loans))
	for i, l := range loans {
		out[i] = loanMsg(l, now)
	}
	return out
}

func fineMsg(f *models.Fine) *Fine {
	if f == nil {
		return nil
	}
	return &Fine{
		ID:            f.ID,
		TransactionID: f.BorrowingID,
		MemberID:      f.MemberID,
		Type:          string(f.Type),
		Amount:        money(f.Amount),
		AssessedDate:  f.AssessedDate,
		PaidDate:      f.PaidDate,
		Status:        string(f.Status),
		Notes:         f.Notes,
	}
}

func reservationMsg(r *models.Reservation) *Reservation {
	return &Reservation{
		ID:          r.ID,
		BookID:      r.BookID,
		MemberID:    r.MemberID,
		ReservedAt:  r.ReservedAt,
		FulfilledAt: r.FulfilledAt,
		CancelledAt: r.CancelledAt,
	}
}

func librarianMsg(l *models.Librarian) *Librarian {
	return &Librarian{
		ID:          l.ID,
		Email:       l.Email,
		DisplayName: l.DisplayName,
		CreatedAt:   time.Unix(l.CreatedAt, 0).UTC(),
	}
}
