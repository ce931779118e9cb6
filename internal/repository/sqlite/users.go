package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, username, password, roles`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u     model.User
		roles string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &roles); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		return nil, fmt.Errorf("decoding roles of user %d: %w", u.ID, err)
	}
	return &u, nil
}

func encodeRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return "", fmt.Errorf("encoding roles: %w", err)
	}
	return string(b), nil
}

// uniqueUserError maps a UNIQUE violation on users to the matching duplicate
// error. Service-level checks catch most duplicates first; this covers two
// requests racing past those checks.
func uniqueUserError(err error, u *model.User) error {
	switch {
	case isUniqueViolation(err, "users", "email"):
		return apperror.Duplicate(apperror.CodeDuplicateEmail, "email", u.Email)
	case isUniqueViolation(err, "users", "username"):
		return apperror.Duplicate(apperror.CodeDuplicateUsername, "username", u.Username)
	}
	return nil
}

// CreateUser inserts user and sets user.ID from the generated row id.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	roles, err := encodeRoles(user.Roles)
	if err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, username, password, roles) VALUES (?, ?, ?, ?)`,
		user.Email, user.Username, user.PasswordHash, roles,
	)
	if err != nil {
		if dupErr := uniqueUserError(err, user); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("sqlite: creating user %q: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// FindUserByEmail matches email exactly (no case folding).
func (db *DB) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.findUserBy(ctx, "email", email)
}

// FindUserByUsername matches username exactly (no case folding).
func (db *DB) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.findUserBy(ctx, "username", username)
}

// findUserBy is only called with constant column names, never user input.
func (db *DB) findUserBy(ctx context.Context, column, value string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("user not found with %s %s", column, value))
		}
		return nil, fmt.Errorf("sqlite: finding user by %s: %w", column, err)
	}
	return u, nil
}

// ListUsers returns users ordered by id, windowed by opts.
func (db *DB) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT ? OFFSET ?`,
		limit, max(opts.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, max(opts.Limit, 0))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UpdateUser overwrites every column of the row identified by user.ID.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	roles, err := encodeRoles(user.Roles)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, username = ?, password = ?, roles = ? WHERE id = ?`,
		user.Email, user.Username, user.PasswordHash, roles, user.ID,
	)
	if err != nil {
		if dupErr := uniqueUserError(err, user); dupErr != nil {
			return dupErr
		}
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	return checkAffected(result, "user", user.ID)
}

// DeleteUser fails with a conflict while the user still owns project files.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &apperror.AppError{
				Err:     apperror.ErrConflict,
				Code:    "conflict",
				Message: fmt.Sprintf("user %d still owns project files", id),
			}
		}
		return fmt.Errorf("sqlite: deleting user %d: %w", id, err)
	}

	return checkAffected(result, "user", id)
}

// checkAffected turns "zero rows affected" into a NotFound error.
func checkAffected(result sql.Result, resource string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return nil
}
