// Package auth provides JWT issuing and validation, password hashing, the
// HTTP middleware that authenticates API requests, and the optional GitHub
// OAuth provider.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client POSTs email + password to /api/login
//  2. Server verifies the bcrypt hash and issues a signed JWT
//  3. Client sends the token on later requests as "Authorization: Bearer <jwt>"
//     (browsers may instead rely on the "token" cookie set at login)
//  4. Middleware validates the JWT and stores a Principal in the request context
//
// JWTs are stateless: everything needed to authorize a request (user id,
// roles, expiry) is inside the signed token, so no session table exists.
// Logout is therefore a client-side action; the server only clears the cookie.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"42","email":"...","username":"...","roles":[...],"jti":"...","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultIssuer is written to and required in the "iss" claim.
	DefaultIssuer = "projectdesk"

	// DefaultTTL is the token lifetime when none is configured.
	DefaultTTL = time.Hour
)

// Principal is the authenticated identity carried by a token.
type Principal struct {
	UserID   int64
	Email    string
	Username string
	Roles    []string
}

// HasRole reports whether the principal was granted role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The same secret
// must be used for both operations, so every instance of the API that should
// accept a token needs the same JWT_SECRET.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and lifetime.
// A ttl of zero means DefaultTTL.
//
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), issuer: DefaultIssuer, ttl: ttl}, nil
}

// TTL is the lifetime of tokens issued by Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims is the JWT payload. jwt.RegisteredClaims supplies sub, iss, iat, exp
// and jti; the identity fields ride alongside so handlers never need a DB
// lookup to know who is calling.
type claims struct {
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Generate creates and signs a token for p that expires after the service TTL.
func (s *TokenService) Generate(p Principal) (string, error) {
	return s.GenerateWithDuration(p, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry duration.
// Tests use a negative duration to mint already-expired tokens.
//
// Every token gets a random "jti" so two logins in the same second still
// produce distinct tokens.
func (s *TokenService) GenerateWithDuration(p Principal, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Email:    p.Email,
		Username: p.Username,
		Roles:    p.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns its Principal.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired and carries an expiry at all
//   - Issuer matches (prevents tokens minted by other apps sharing the secret)
//   - Algorithm is HS256 (prevents "alg: none" and RS/HS confusion attacks)
func (s *TokenService) Validate(tokenStr string) (Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("auth: token expired")
		}
		return Principal{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Principal{}, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Principal{}, fmt.Errorf("auth: token has no valid subject")
	}

	return Principal{
		UserID:   userID,
		Email:    c.Email,
		Username: c.Username,
		Roles:    c.Roles,
	}, nil
}
