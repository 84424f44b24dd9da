package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mmynk/shelfkeeper/internal/models"
)

type librarianRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	DisplayName  string `db:"display_name"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r *librarianRow) model() *models.Librarian {
	return &models.Librarian{
		ID:           r.ID,
		Email:        r.Email,
		DisplayName:  r.DisplayName,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// CreateLibrarian inserts a new librarian into the database.
func (q *queries) CreateLibrarian(ctx context.Context, l *models.Librarian) error {
	query := `
		INSERT INTO librarians (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := q.ext.ExecContext(ctx, query,
		l.ID,
		l.Email,
		l.DisplayName,
		l.PasswordHash,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create librarian: %w", translate(err))
	}

	return nil
}

// GetLibrarianByEmail retrieves a librarian by their email address.
func (q *queries) GetLibrarianByEmail(ctx context.Context, email string) (*models.Librarian, error) {
	return q.getLibrarian(ctx, "email", email)
}

// GetLibrarianByID retrieves a librarian by their ID.
func (q *queries) GetLibrarianByID(ctx context.Context, id string) (*models.Librarian, error) {
	return q.getLibrarian(ctx, "id", id)
}

func (q *queries) getLibrarian(ctx context.Context, column, value string) (*models.Librarian, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM librarians
		WHERE ` + column + ` = ?
	`

	var row librarianRow
	err := sqlx.GetContext(ctx, q.ext, &row, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Librarian not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get librarian by %s: %w", column, err)
	}

	return row.model(), nil
}
