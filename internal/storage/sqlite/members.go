package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

type memberRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Email       string `db:"email"`
	Phone       string `db:"phone"`
	Address     string `db:"address"`
	Status      string `db:"status"`
	MaxBooks    int    `db:"max_books"`
	MemberSince int64  `db:"member_since"`
}

func (r *memberRow) model() *models.Member {
	return &models.Member{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Address:     r.Address,
		Status:      models.MemberStatus(r.Status),
		MaxBooks:    r.MaxBooks,
		MemberSince: fromUnix(r.MemberSince),
	}
}

const memberColumns = `id, name, email, phone, address, status, max_books, member_since`

// CreateMember inserts a new member.
func (q *queries) CreateMember(ctx context.Context, m *models.Member) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.MemberSince.IsZero() {
		m.MemberSince = time.Now().UTC().Truncate(time.Second)
	}
	if m.Status == "" {
		m.Status = models.MemberActive
	}
	if m.MaxBooks == 0 {
		m.MaxBooks = models.DefaultMaxBooks
	}

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Phone, m.Address, string(m.Status), m.MaxBooks, m.MemberSince.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", translate(err))
	}
	return nil
}

// GetMember retrieves a member by ID.
func (q *queries) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var row memberRow
	if err := q.getOne(ctx, &row, "member "+id, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// ListMembers returns members by name, optionally filtered by status.
func (q *queries) ListMembers(ctx context.Context, status models.MemberStatus) ([]*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY name, id`

	var rows []memberRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]*models.Member, len(rows))
	for i := range rows {
		members[i] = rows[i].model()
	}
	return members, nil
}

// UpdateMemberStatus changes a member's standing.
func (q *queries) UpdateMemberStatus(ctx context.Context, id string, status models.MemberStatus) error {
	err := q.execOne(ctx, fmt.Errorf("member %s: %w", id, storage.ErrNotFound),
		`UPDATE members SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	return nil
}

// DeleteMember removes a member together with their history.
func (q *queries) DeleteMember(ctx context.Context, id string) error {
	err := q.execOne(ctx, fmt.Errorf("member %s: %w", id, storage.ErrNotFound),
		`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return nil
}
