// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
//
// Two sign-in paths issue the same kind of token: local email/password and
// GitHub OAuth. Either way the token carries the user's integer ID as the
// subject and their role as a custom claim — exactly what the code file
// endpoints consume.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/code-editor-backend/internal/apperror"
	"github.com/sakif/code-editor-backend/internal/auth"
	"github.com/sakif/code-editor-backend/internal/model"
	"github.com/sakif/code-editor-backend/internal/repository"
)

const minPasswordLength = 8

// AuthService handles registration, login, and token issuance.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates a local account and signs the user in.
//
// New accounts always get role "user"; admins are promoted out-of-band.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	fieldErrors := map[string][]string{}
	if email == "" {
		fieldErrors["email"] = append(fieldErrors["email"], "The email field is required.")
	} else if !strings.Contains(email, "@") {
		fieldErrors["email"] = append(fieldErrors["email"], "The email field must be a valid email address.")
	}
	if len(password) < minPasswordLength {
		fieldErrors["password"] = append(fieldErrors["password"],
			fmt.Sprintf("The password field must be at least %d characters.", minPasswordLength))
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.ValidationErrors(fieldErrors)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Login:        email,
		Role:         model.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Duplicate email comes back as a validation error from the
		// repository and maps to 400 like any other field error.
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issue(user)
}

// Login verifies local credentials and signs the user in.
//
// Unknown email and wrong password produce the same response — no probing
// which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	if user.PasswordHash == "" {
		// OAuth-only account; it has no password to check.
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return s.issue(user)
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: upsert the
// account keyed by GitHub ID, then issue a token for it.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID: ghUser.ID,
		Login:    ghUser.Login,
		Email:    ghUser.Email,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.Int64("userID", user.ID),
		slog.String("login", user.Login),
	)

	return s.issue(user)
}

// GetUserByID returns the user for the given ID. Used by /api/me after the
// middleware has validated the token.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
