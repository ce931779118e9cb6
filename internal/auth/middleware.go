package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package can
// read or shadow the principal stored under it.
type contextKey string

const principalKey contextKey = "principal"

// CookieName is the cookie the login endpoint sets and the middleware reads
// when no Authorization header is present.
const CookieName = "token"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT (see extractPrincipal), validates it and stores the
// Principal in the request context. If the token is missing or invalid it
// answers 401 Unauthorized and stops the chain.
//
// MIDDLEWARE PATTERN IN GO:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... before ...
//	        next.ServeHTTP(w, r)
//	        // ... after ...
//	    })
//	}
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := extractPrincipal(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth attaches the Principal when a valid token is present but never
// rejects the request. Handlers call PrincipalFromContext and treat
// (_, false) as anonymous.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p, err := extractPrincipal(r, tokens); err == nil {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithPrincipal returns a copy of ctx carrying p. Exported for handler tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the authenticated caller.
//
// Returns (Principal{}, false) if the request is anonymous.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.UserID > 0
}

// extractPrincipal finds the token and validates it.
//
// Lookup order:
//  1. "Authorization: Bearer <jwt>" (API clients)
//  2. the "token" cookie (browsers after a login that set it)
func extractPrincipal(r *http.Request, tokens *TokenService) (Principal, error) {
	if token, ok := bearerToken(r); ok {
		return tokens.Validate(token)
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Principal{}, err
	}
	return tokens.Validate(cookie.Value)
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
