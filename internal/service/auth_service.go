package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/shelfkeeper/internal/auth"
	"github.com/mmynk/shelfkeeper/internal/middleware"
)

const AuthServiceName = "library.v1.AuthService"

const (
	AuthRegisterProcedure            = "/" + AuthServiceName + "/Register"
	AuthLoginProcedure               = "/" + AuthServiceName + "/Login"
	AuthLogoutProcedure              = "/" + AuthServiceName + "/Logout"
	AuthGetCurrentLibrarianProcedure = "/" + AuthServiceName + "/GetCurrentLibrarian"
)

// PublicProcedures can be called without a token.
var PublicProcedures = []string{AuthRegisterProcedure, AuthLoginProcedure}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=200"`
	Password    string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned by Register and Login.
type SessionResponse struct {
	Librarian *Librarian `json:"librarian"`
	Token     string     `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentLibrarianRequest struct{}

type GetCurrentLibrarianResponse struct {
	Librarian *Librarian `json:"librarian"`
}

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	librarians    auth.LibrarianStorage
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, librarians auth.LibrarianStorage, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		librarians:    librarians,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// NewAuthServiceHandler builds the HTTP handler serving every AuthService
// procedure.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, AuthRegisterProcedure, svc.Register, opts)
	route(mux, AuthLoginProcedure, svc.Login, opts)
	route(mux, AuthLogoutProcedure, svc.Logout, opts)
	route(mux, AuthGetCurrentLibrarianProcedure, svc.GetCurrentLibrarian, opts)
	return "/" + AuthServiceName + "/", mux
}

// Register creates a new librarian account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[SessionResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	if err := validateMsg(req.Msg); err != nil {
		return nil, err
	}

	librarian, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(librarian)
	if err != nil {
		s.logger.Error("Failed to generate token", "librarian_id", librarian.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Librarian registered", "librarian_id", librarian.ID, "email", librarian.Email)
	return connect.NewResponse(&SessionResponse{Librarian: librarianMsg(librarian), Token: token}), nil
}

// Login authenticates a librarian and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[SessionResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	if err := validateMsg(req.Msg); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	librarian, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(librarian)
	if err != nil {
		s.logger.Error("Failed to generate token", "librarian_id", librarian.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Librarian logged in", "librarian_id", librarian.ID)
	return connect.NewResponse(&SessionResponse{Librarian: librarianMsg(librarian), Token: token}), nil
}

// Logout is a no-op: tokens are stateless and the client discards them.
func (s *AuthService) Logout(ctx context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	s.logger.Info("Logout request", "librarian_id", middleware.GetLibrarianID(ctx))
	return connect.NewResponse(&LogoutResponse{}), nil
}

// GetCurrentLibrarian returns the caller's account.
func (s *AuthService) GetCurrentLibrarian(ctx context.Context, req *connect.Request[GetCurrentLibrarianRequest]) (*connect.Response[GetCurrentLibrarianResponse], error) {
	librarianID := middleware.GetLibrarianID(ctx)
	if librarianID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	librarian, err := s.librarians.GetLibrarianByID(ctx, librarianID)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if librarian == nil {
		// The account was removed after the token was issued.
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}

	return connect.NewResponse(&GetCurrentLibrarianResponse{Librarian: librarianMsg(librarian)}), nil
}
