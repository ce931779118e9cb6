// Package model defines the data structures used throughout the application.
package model

// DefaultRole is assigned to users created or logged in without any role.
const DefaultRole = "ROLE_USER"

// User represents an account that can log in to the API.
//
// PasswordHash holds the bcrypt output and is tagged json:"-" so it can never
// leak into a response, even if a handler serializes the model directly.
type User struct {
	ID           int64    `json:"id"       db:"id"`
	Email        string   `json:"email"    db:"email"`
	Username     string   `json:"username" db:"username"`
	PasswordHash string   `json:"-"        db:"password"`
	Roles        []string `json:"roles"    db:"roles"` // stored as a JSON array
}

// EnsureRoles assigns DefaultRole when the user has none.
// Reports whether the roles were changed.
func (u *User) EnsureRoles() bool {
	if len(u.Roles) > 0 {
		return false
	}
	u.Roles = []string{DefaultRole}
	return true
}

// UserSummary is the public view of a User.
type UserSummary struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// Summary returns the public view of u.
func (u *User) Summary() UserSummary {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserSummary{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Roles:    roles,
	}
}
