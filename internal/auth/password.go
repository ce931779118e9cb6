package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production.
//
// Set it so that one hash takes ~200–300ms on the production hardware:
// negligible for a login, expensive for anyone brute-forcing a leaked table.
const DefaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected
// instead of silently truncated.
const maxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct rather than free functions so tests can inject a low cost.
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost
//	 version
//
// The salt is embedded in the hash, so the users table needs one column.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with DefaultCost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost,
// clamped to bcrypt's allowed range. Tests in other packages pass
// bcrypt.MinCost (4) to keep each hash in the millisecond range.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	cost = max(bcrypt.MinCost, min(cost, bcrypt.MaxCost))
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. Store the returned
// string as-is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash.
//
// Returns nil on match and ErrPasswordMismatch on a wrong password. Any other
// error means the stored hash itself is unusable.
// The comparison is constant-time inside bcrypt.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
