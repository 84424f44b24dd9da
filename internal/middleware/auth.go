// Package middleware holds the Connect interceptors wrapped around every
// service: librarian authentication, request logging and RPC metrics.
package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/shelfkeeper/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// LibrarianIDKey is the context key for the authenticated librarian ID.
	LibrarianIDKey contextKey = "librarian_id"
	// EmailKey is the context key for the authenticated librarian's email.
	EmailKey contextKey = "email"
)

// GetLibrarianID extracts the librarian ID from the context.
// Returns empty string if not found.
func GetLibrarianID(ctx context.Context) string {
	id, _ := ctx.Value(LibrarianIDKey).(string)
	return id
}

// GetEmail extracts the librarian email from the context.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// WithLibrarian returns ctx carrying the given librarian identity.
func WithLibrarian(ctx context.Context, id, email string) context.Context {
	ctx = context.WithValue(ctx, LibrarianIDKey, id)
	return context.WithValue(ctx, EmailKey, email)
}

// RequireAuth validates the bearer token on every call and puts the
// librarian identity into the request context. Procedures listed in public
// skip the check.
func RequireAuth(jwtManager *auth.JWTManager, public ...string) connect.UnaryInterceptorFunc {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if open[req.Spec().Procedure] {
				return next(ctx, req)
			}

			tokenString, err := bearer(req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithLibrarian(ctx, claims.LibrarianID, claims.Email), req)
		}
	}
}

func bearer(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}
