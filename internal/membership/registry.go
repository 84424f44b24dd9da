// Package membership manages library members and decides whether they may
// borrow.
package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/shelfkeeper/internal/apperr"
	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registry is the member component.
type Registry struct {
	store     storage.Store
	threshold decimal.Decimal
}

// New creates a Registry. threshold is the outstanding lateness total a
// member may owe and still borrow.
func New(store storage.Store, threshold decimal.Decimal) *Registry {
	return &Registry{store: store, threshold: threshold}
}

// NewMember is the input of Register. MaxBooks zero means the default.
type NewMember struct {
	Name     string `validate:"required,max=200"`
	Email    string `validate:"required,email"`
	Phone    string `validate:"max=50"`
	Address  string `validate:"max=500"`
	MaxBooks int    `validate:"omitempty,min=1,max=10"`
}

// Register creates an active member.
func (r *Registry) Register(ctx context.Context, in NewMember) (*models.Member, error) {
	const op = "membership.Register"
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, invalid(op, err)
	}

	member := &models.Member{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Address:  in.Address,
		Status:   models.MemberActive,
		MaxBooks: in.MaxBooks,
	}
	if member.MaxBooks == 0 {
		member.MaxBooks = models.DefaultMaxBooks
	}

	if err := r.store.CreateMember(ctx, member); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Conflictf(op, "email %s already registered", member.Email)
		}
		return nil, err
	}

	slog.Info("Member registered", "member_id", member.ID, "max_books", member.MaxBooks)
	return member, nil
}

// GetMember returns a member by id.
func (r *Registry) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	member, err := r.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, notFound(err, "membership.GetMember", memberID)
	}
	return member, nil
}

// ListMembers returns members, optionally only those with the given status.
func (r *Registry) ListMembers(ctx context.Context, status models.MemberStatus) ([]*models.Member, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Invalidf("membership.ListMembers", "unknown member status %q", status)
	}
	return r.store.ListMembers(ctx, status)
}

// UpdateStatus suspends, expires or reactivates a member. Open loans are
// left untouched.
func (r *Registry) UpdateStatus(ctx context.Context, memberID string, status models.MemberStatus) (*models.Member, error) {
	const op = "membership.UpdateStatus"
	if !status.Valid() {
		return nil, apperr.Invalidf(op, "unknown member status %q", status)
	}
	if err := r.store.UpdateMemberStatus(ctx, memberID, status); err != nil {
		return nil, notFound(err, op, memberID)
	}

	slog.Info("Member status changed", "member_id", memberID, "status", status)
	return r.GetMember(ctx, memberID)
}

// DeleteMember removes a member together with their closed history. It
// fails with a state conflict listing the open loans while any remain.
func (r *Registry) DeleteMember(ctx context.Context, memberID string) error {
	const op = "membership.DeleteMember"
	err := r.store.WithTx(ctx, func(q storage.Queries) error {
		if _, err := q.GetMember(ctx, memberID); err != nil {
			return notFound(err, op, memberID)
		}
		open, err := q.OpenTransactionIDs(ctx, "", memberID)
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return apperr.Blocked(op, "member has open loans", open)
		}
		return q.DeleteMember(ctx, memberID)
	})
	if err != nil {
		return err
	}

	slog.Info("Member deleted", "member_id", memberID)
	return nil
}

// IsEligible reports whether the member may borrow right now, with every
// reason they may not.
func (r *Registry) IsEligible(ctx context.Context, memberID string) (Eligibility, error) {
	_, e, err := Assess(ctx, r.store, memberID, r.threshold)
	if err != nil {
		return Eligibility{}, notFound(err, "membership.IsEligible", memberID)
	}
	return e, nil
}

// Status is the borrowing overview of one member.
type Status struct {
	Member             *models.Member
	CurrentBorrowed    int
	MaxBooks           int
	OverdueCount       int
	CanBorrow          bool
	Reasons            []string
	Outstanding        decimal.Decimal
	ActiveTransactions []*models.Loan
}

// Status builds the member overview. A loan counts as overdue once it is
// past due at now, whether or not the sweep has flagged it yet.
func (r *Registry) Status(ctx context.Context, memberID string, now time.Time) (*Status, error) {
	const op = "membership.Status"
	member, e, err := Assess(ctx, r.store, memberID, r.threshold)
	if err != nil {
		return nil, notFound(err, op, memberID)
	}

	loans, err := r.store.ListLoans(ctx, storage.TransactionFilter{
		MemberID: memberID,
		Statuses: []models.TransactionStatus{models.TxActive, models.TxOverdue},
	})
	if err != nil {
		return nil, err
	}

	st := &Status{
		Member:             member,
		CurrentBorrowed:    e.OpenLoans,
		MaxBooks:           member.MaxBooks,
		CanBorrow:          e.Eligible,
		Reasons:            e.Reasons,
		Outstanding:        e.Balance.Outstanding,
		ActiveTransactions: loans,
	}
	for _, l := range loans {
		if l.Status == models.TxOverdue || l.DaysOverdue(now) > 0 {
			st.OverdueCount++
		}
	}
	return st, nil
}

func notFound(err error, op, memberID string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFoundf(op, "member %s not found", memberID)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// invalid flattens validator errors into one Validation error.
func invalid(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalidf(op, "%v", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return apperr.Invalidf(op, "%s", strings.Join(msgs, "; "))
}
