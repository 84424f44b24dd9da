package auth

import (
	"context"

	"github.com/mmynk/shelfkeeper/internal/models"
)

// Authenticator verifies librarian credentials. Implementations decide what
// a credential is; the only one today is a password.
type Authenticator interface {
	// Register creates a librarian account with the given credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.Librarian, error)

	// Authenticate returns the librarian the credential belongs to.
	Authenticate(ctx context.Context, email, credential string) (*models.Librarian, error)

	// ValidateCredential checks the credential meets the implementation's rules.
	ValidateCredential(credential string) error
}
