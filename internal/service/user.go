package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/repository"
)

// Pagination bounds for ListUsers.
const (
	DefaultPage     = 1
	DefaultPageSize = 100
	MaxPageSize     = 100
)

type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewUserService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

type CreateUserInput struct {
	Email    string   `json:"email"    validate:"required,email"`
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required,max=72"`
	Roles    []string `json:"roles"`
}

// UpdateUserInput is a partial update: nil fields are left untouched.
// Roles is replaced wholesale when present in the JSON, even as [].
type UpdateUserInput struct {
	Email    *string  `json:"email"`
	Username *string  `json:"username"`
	Password *string  `json:"password"`
	Roles    []string `json:"roles"`
}

// DeletedUser is the confirmation payload of Delete.
type DeletedUser struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// List returns one page of users ordered by id.
// page below 1 becomes 1; limit is clamped to [1, MaxPageSize].
func (s *UserService) List(ctx context.Context, page, limit int) ([]model.UserSummary, error) {
	page = max(page, 1)
	limit = max(1, min(limit, MaxPageSize))

	users, err := s.users.ListUsers(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}

	out := make([]model.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*model.UserSummary, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

// Create registers a new user. Duplicate checks are exact-match: emails and
// usernames are compared as given, without case folding.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.UserSummary, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if err := s.checkEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}
	if err := s.checkUsernameFree(ctx, in.Username, 0); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Roles:        in.Roles,
	}
	user.EnsureRoles()

	// The repository maps a UNIQUE race to the same duplicate errors.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	summary := user.Summary()
	return &summary, nil
}

// Update applies the non-nil fields of in.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*model.UserSummary, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !validEmail(email) {
			return nil, apperror.InvalidEmailFormat(email)
		}
		if err := s.checkEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, apperror.MissingFields("username")
		}
		if err := s.checkUsernameFree(ctx, username, user.ID); err != nil {
			return nil, err
		}
		user.Username = username
	}

	if in.Password != nil {
		if *in.Password == "" {
			return nil, apperror.MissingFields("password")
		}
		hash, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, apperror.ValidationFailed("password", err.Error())
		}
		user.PasswordHash = hash
	}

	if in.Roles != nil {
		user.Roles = in.Roles
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	summary := user.Summary()
	return &summary, nil
}

// Delete removes the user and returns the identity it had.
func (s *UserService) Delete(ctx context.Context, id int64) (*DeletedUser, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("user deleted", slog.Int64("userID", id))
	return &DeletedUser{Email: user.Email, Username: user.Username}, nil
}

// checkEmailFree fails with DuplicateEmail when a user other than selfID
// already has email. selfID 0 means "no user is exempt".
func (s *UserService) checkEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("service/user: checking email: %w", err)
	case existing.ID != selfID:
		return apperror.Duplicate(apperror.CodeDuplicateEmail, "email", email)
	}
	return nil
}

func (s *UserService) checkUsernameFree(ctx context.Context, username string, selfID int64) error {
	existing, err := s.users.FindUserByUsername(ctx, username)
	switch {
	case isNotFound(err):
		return nil
	case err != nil:
		return fmt.Errorf("service/user: checking username: %w", err)
	case existing.ID != selfID:
		return apperror.Duplicate(apperror.CodeDuplicateUsername, "username", username)
	}
	return nil
}
