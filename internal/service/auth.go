package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/repository"
)

// AuthService verifies credentials and issues tokens.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                                 ↘ PasswordService (bcrypt), TokenService (JWT)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

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

type LoginInput struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult bundles the issued token with the public view of the user so
// the handler can respond (and optionally set the cookie) in one step.
type AuthResult struct {
	Token string
	User  model.UserSummary
}

// Login checks email + password and issues a token.
//
// An unknown email and a wrong password produce the same InvalidCredentials
// error, so callers cannot probe which accounts exist.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByEmail(ctx, in.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: finding user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			// Stored hash is unusable; still a failed login from the caller's view.
			s.logger.Error("password verification failed",
				slog.Int64("userID", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.InvalidCredentials()
	}

	return s.issue(ctx, user)
}

// LoginGitHub logs in the existing user whose email matches the GitHub
// profile. GitHub login never creates accounts.
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.Email == "" {
		return nil, apperror.InvalidCredentials()
	}

	user, err := s.users.FindUserByEmail(ctx, ghUser.Email)
	if err != nil {
		if isNotFound(err) {
			s.logger.Info("GitHub login for unknown email",
				slog.String("login", ghUser.Login),
			)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: finding user: %w", err)
	}

	return s.issue(ctx, user)
}

// issue assigns the default role to role-less users (persisting it) and
// signs a token for user.
func (s *AuthService) issue(ctx context.Context, user *model.User) (*AuthResult, error) {
	if user.EnsureRoles() {
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: saving default role for user %d: %w", user.ID, err)
		}
	}

	token, err := s.tokens.Generate(auth.Principal{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Roles:    user.Roles,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))

	return &AuthResult{Token: token, User: user.Summary()}, nil
}

// ValidateToken returns the principal encoded in tokenStr.
func (s *AuthService) ValidateToken(tokenStr string) (auth.Principal, error) {
	p, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("service/auth: %w", err)
	}
	return p, nil
}
