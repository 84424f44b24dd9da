package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/shelfkeeper/internal/models"
	"github.com/mmynk/shelfkeeper/internal/testutil"
)

func TestPasswordAuthenticator(t *testing.T) {
	store := testutil.NewStore(t)
	a := NewPasswordAuthenticatorWithCost(store, bcrypt.MinCost)
	ctx := context.Background()

	_, err := a.Register(ctx, "desk@library.org", "Front Desk", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	lib, err := a.Register(ctx, " Desk@Library.org ", "Front Desk", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "desk@library.org", lib.Email)
	assert.NotEqual(t, "correct horse", lib.PasswordHash)

	_, err = a.Register(ctx, "desk@library.org", "Again", "another password")
	assert.ErrorIs(t, err, ErrEmailExists)

	got, err := a.Authenticate(ctx, "DESK@library.org", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, lib.ID, got.ID)

	_, err = a.Authenticate(ctx, "desk@library.org", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "nobody@library.org", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJWTManager(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	lib := models.NewLibrarian("desk@library.org", "Front Desk", "hash")

	token, err := m.Generate(lib)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, lib.ID, claims.LibrarianID)
	assert.Equal(t, lib.Email, claims.Email)

	_, err = NewJWTManager("other-secret", time.Hour).Validate(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired := NewJWTManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
