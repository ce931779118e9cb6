// Package server is the composition root: it opens the database and file
// store, builds services and handlers, mounts them on a chi router and runs
// the HTTP server with graceful shutdown.
//
// Dependency flow:
//
//	config → sqlite.DB, storage.FileStore
//	       → AuthService, UserService, ClientService, ProjectFileService
//	       → handlers → routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, handlers get services, and nothing reaches for a global.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/projectdesk/internal/auth"
	"github.com/sakif/projectdesk/internal/config"
	"github.com/sakif/projectdesk/internal/handler"
	"github.com/sakif/projectdesk/internal/middleware"
	sqliteRepo "github.com/sakif/projectdesk/internal/repository/sqlite"
	"github.com/sakif/projectdesk/internal/service"
	"github.com/sakif/projectdesk/internal/storage"
)

// Server owns the database connection and the router.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
}

// New opens the database and the file store described by cfg and wires
// every route. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := OpenDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	store, err := NewFileStore(ctx, cfg.Storage)
	if err != nil {
		db.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
	}
	s.setupRoutes(store)
	return s, nil
}

// OpenDatabase creates the parent directory of a file database and opens it.
func OpenDatabase(path string) (*sqliteRepo.DB, error) {
	if !strings.HasPrefix(path, ":memory:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// NewFileStore returns the FileStore selected by cfg.Driver.
func NewFileStore(ctx context.Context, cfg config.StorageConfig) (storage.FileStore, error) {
	switch cfg.Driver {
	case config.StorageLocal, "":
		return storage.NewLocalStore(cfg.Root), nil
	case config.StorageS3:
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:       cfg.S3.Bucket,
			Prefix:       cfg.S3.Prefix,
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UsePathStyle: cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("creating s3 store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /healthz
//	GET    /auth/github/login, /auth/github/callback   (when configured)
//	POST   /api/login                                   rate limited
//	GET    /api/logout
//	GET    /api/clients, /api/clients/{id}, /api/clients/export
//	POST   /api/createclient                            auth
//	PUT    /api/updateclient/{id}                       auth
//	DELETE /api/deleteclient/{id}                       auth
//	POST   /api/clients/import                          auth
//	*      /api/projects/{projectId}/files...           auth, except download-zip
//	GET    /api/users, /api/users/{id}
//	POST   /api/newusers
//	PUT    /api/updateusers/{id}
//	DELETE /api/deleteusers/{id}
//
// Middleware runs in the order it is added: request id first so the access
// log can print it, RealIP before the rate limiter reads RemoteAddr.
func (s *Server) setupRoutes(store storage.FileStore) {
	cfg := s.config
	maxUpload := cfg.Server.MaxUploadMB << 20

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db, s.tokens, passwords, s.logger)
	userService := service.NewUserService(s.db, passwords, s.logger)
	clientService := service.NewClientService(s.db, s.logger)
	fileService := service.NewProjectFileService(s.db, s.db, store, cfg.Storage.ScratchDir, s.logger)

	var github handler.OAuthProvider
	if cfg.GitHub.Enabled() {
		github = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, github, cfg.JWT.SetCookie, s.tokens.TTL(), s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	clientHandler := handler.NewClientHandler(clientService, maxUpload, s.logger)
	fileHandler := handler.NewProjectFileHandler(fileService, maxUpload, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	requireAuth := auth.RequireAuth(s.tokens)
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.With(loginLimiter.Middleware).Post("/login", authHandler.HandleLogin)
		r.With(auth.OptionalAuth(s.tokens)).Get("/logout", authHandler.HandleLogout)

		// Clients: reads are public, writes need a token.
		r.Get("/clients", clientHandler.HandleList)
		r.Get("/clients/export", clientHandler.HandleExport)
		r.Get("/clients/{id:[0-9]+}", clientHandler.HandleGet)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/createclient", clientHandler.HandleCreate)
			r.Put("/updateclient/{id:[0-9]+}", clientHandler.HandleUpdate)
			r.Delete("/deleteclient/{id:[0-9]+}", clientHandler.HandleDelete)
			r.Post("/clients/import", clientHandler.HandleImport)
		})

		r.Route("/projects/{projectId:[0-9]+}/files", func(r chi.Router) {
			r.Get("/download-zip", fileHandler.HandleDownloadZip)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", fileHandler.HandleUpload)
				r.Get("/", fileHandler.HandleList)
				r.Get("/{fileId:[0-9]+}/download", fileHandler.HandleDownload)
				r.Put("/{fileId:[0-9]+}/rename", fileHandler.HandleRename)
				r.Delete("/{fileId:[0-9]+}", fileHandler.HandleDelete)
			})
		})

		r.Get("/users", userHandler.HandleList)
		r.Get("/users/{id:[0-9]+}", userHandler.HandleGet)
		r.Post("/newusers", userHandler.HandleCreate)
		r.Put("/updateusers/{id:[0-9]+}", userHandler.HandleUpdate)
		r.Delete("/deleteusers/{id:[0-9]+}", userHandler.HandleDelete)
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for up
// to the configured shutdown timeout and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
			slog.String("storage", s.config.Storage.Driver),
			slog.Bool("githubLogin", s.config.GitHub.Enabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
