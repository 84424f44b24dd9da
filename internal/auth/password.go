package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
)

// LibrarianStorage is the persistence the authenticator needs. Lookups
// return nil, nil when nothing matches.
type LibrarianStorage interface {
	CreateLibrarian(ctx context.Context, librarian *models.Librarian) error
	GetLibrarianByEmail(ctx context.Context, email string) (*models.Librarian, error)
	GetLibrarianByID(ctx context.Context, id string) (*models.Librarian, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage LibrarianStorage
	cost    int
}

// NewPasswordAuthenticator creates a password authenticator hashing at
// bcrypt.DefaultCost.
func NewPasswordAuthenticator(storage LibrarianStorage) *PasswordAuthenticator {
	return NewPasswordAuthenticatorWithCost(storage, bcrypt.DefaultCost)
}

// NewPasswordAuthenticatorWithCost lets tests trade hash strength for speed.
func NewPasswordAuthenticatorWithCost(storage LibrarianStorage, cost int) *PasswordAuthenticator {
	return &PasswordAuthenticator{storage: storage, cost: cost}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a librarian account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.Librarian, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	existing, err := a.storage.GetLibrarianByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	librarian := models.NewLibrarian(email, displayName, string(hash))
	if err := a.storage.CreateLibrarian(ctx, librarian); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create librarian: %w", err)
	}

	return librarian, nil
}

// Authenticate verifies the email and password, returning the librarian if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Librarian, error) {
	librarian, err := a.storage.GetLibrarianByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if librarian == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(librarian.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return librarian, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
