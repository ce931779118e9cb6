package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/service"
)

const stateCookieName = "oauth_state"

// OAuthProvider is the part of *auth.GitHubProvider the handler needs.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves password login, logout and the optional GitHub flow.
//
//   - HandleLogin          → POST /api/login
//   - HandleLogout         → GET  /api/logout
//   - HandleGitHubLogin    → GET  /auth/github/login
//   - HandleGitHubCallback → GET  /auth/github/callback
//
// Tokens are returned in the body. When setCookie is on, the same token is
// also stored in an HttpOnly cookie that auth.RequireAuth accepts.
type AuthHandler struct {
	auth      *service.AuthService
	github    OAuthProvider // nil when GitHub login is not configured
	setCookie bool
	cookieTTL time.Duration
	logger    *slog.Logger
}

func NewAuthHandler(
	authService *service.AuthService,
	github OAuthProvider,
	setCookie bool,
	cookieTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:      authService,
		github:    github,
		setCookie: setCookie,
		cookieTTL: cookieTTL,
		logger:    logger,
	}
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    model.UserSummary `json:"user"`
}

// HandleLogin checks email and password and issues a JWT.
//
// REQUEST BODY: {"email": "ana@example.com", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.respondWithToken(w, res)
}

// HandleLogout confirms the logout and clears the token cookie.
//
// Tokens are stateless, so there is nothing to revoke server-side: a bearer
// token stays valid until it expires and the client is expected to drop it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		h.logger.Info("user logged out", slog.Int64("userID", p.UserID))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// The random state goes into a short-lived cookie; the callback only proceeds
// when GitHub echoes the same value back, which proves this server started
// the flow.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for the GitHub profile
//  3. Log in the local user whose email matches
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || query.Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, h.logger, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeError(w, h.logger, apperror.InvalidCredentials())
		return
	}

	code := query.Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.MissingFields("code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.InvalidCredentials())
		return
	}

	res, err := h.auth.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Warn("auth callback: no matching user", slog.String("login", ghUser.Login))
		writeError(w, h.logger, err)
		return
	}

	h.respondWithToken(w, res)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, res *service.AuthResult) {
	if h.setCookie {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    res.Token,
			Path:     "/",
			MaxAge:   int(h.cookieTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "login successful",
		Token:   res.Token,
		User:    res.User,
	})
}
