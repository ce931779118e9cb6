package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/handler"
	"github.com/sakif/projectdesk/internal/model"
	sqliteRepo "github.com/sakif/projectdesk/internal/repository/sqlite"
	"github.com/sakif/projectdesk/internal/service"
	"github.com/sakif/projectdesk/internal/storage"
)

// testEnv wires real services over an in-memory database and a temp-dir
// file store, and mounts the handlers on a chi router with the same paths
// the server uses.
type testEnv struct {
	db        *sqliteRepo.DB
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	router    chi.Router
	github    *fakeOAuth
	scratch   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := storage.NewLocalStore(t.TempDir())
	github := &fakeOAuth{}
	scratch := t.TempDir()

	authH := handler.NewAuthHandler(service.NewAuthService(db, tokens, passwords, logger), github, true, time.Hour, logger)
	userH := handler.NewUserHandler(service.NewUserService(db, passwords, logger), logger)
	clientH := handler.NewClientHandler(service.NewClientService(db, logger), 1<<20, logger)
	fileH := handler.NewProjectFileHandler(service.NewProjectFileService(db, db, store, scratch, logger), 1<<20, logger)

	r := chi.NewRouter()
	r.Get("/auth/github/login", authH.HandleGitHubLogin)
	r.Get("/auth/github/callback", authH.HandleGitHubCallback)
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", authH.HandleLogin)
		r.With(auth.OptionalAuth(tokens)).Get("/logout", authH.HandleLogout)

		r.Get("/clients", clientH.HandleList)
		r.Get("/clients/export", clientH.HandleExport)
		r.Get("/clients/{id:[0-9]+}", clientH.HandleGet)
		r.Post("/createclient", clientH.HandleCreate)
		r.Put("/updateclient/{id:[0-9]+}", clientH.HandleUpdate)
		r.Delete("/deleteclient/{id:[0-9]+}", clientH.HandleDelete)
		r.Post("/clients/import", clientH.HandleImport)

		r.Route("/projects/{projectId:[0-9]+}/files", func(r chi.Router) {
			r.Get("/download-zip", fileH.HandleDownloadZip)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Post("/", fileH.HandleUpload)
				r.Get("/", fileH.HandleList)
				r.Get("/{fileId:[0-9]+}/download", fileH.HandleDownload)
				r.Put("/{fileId:[0-9]+}/rename", fileH.HandleRename)
				r.Delete("/{fileId:[0-9]+}", fileH.HandleDelete)
			})
		})

		r.Get("/users", userH.HandleList)
		r.Get("/users/{id:[0-9]+}", userH.HandleGet)
		r.Post("/newusers", userH.HandleCreate)
		r.Put("/updateusers/{id:[0-9]+}", userH.HandleUpdate)
		r.Delete("/deleteusers/{id:[0-9]+}", userH.HandleDelete)
	})

	return &testEnv{db: db, tokens: tokens, passwords: passwords, router: r, github: github, scratch: scratch}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) seedUser(t *testing.T, email, username, password string, roles ...string) *model.User {
	t.Helper()
	hash, err := e.passwords.Hash(password)
	require.NoError(t, err)
	u := &model.User{Email: email, Username: username, PasswordHash: hash, Roles: roles}
	require.NoError(t, e.db.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) tokenFor(t *testing.T, u *model.User) string {
	t.Helper()
	tok, err := e.tokens.Generate(auth.Principal{UserID: u.ID, Email: u.Email, Username: u.Username, Roles: u.Roles})
	require.NoError(t, err)
	return tok
}

func (e *testEnv) seedProject(t *testing.T, name string) *model.Project {
	t.Helper()
	p := &model.Project{ProjectName: name}
	require.NoError(t, e.db.CreateProject(context.Background(), p))
	return p
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// multipartReq builds a request whose "file" part holds content. An empty
// field name sends a form without the file part.
func multipartReq(t *testing.T, method, target, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("other", "value"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	body := decode[handler.ErrorResponse](t, rr)
	assert.Equal(t, code, body.Error)
	assert.NotEmpty(t, body.Message)
}

type fakeOAuth struct {
	user *auth.GitHubUser
	err  error
	code string
}

func (f *fakeOAuth) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (f *fakeOAuth) Exchange(_ context.Context, code string) (*auth.GitHubUser, error) {
	f.code = code
	return f.user, f.err
}
