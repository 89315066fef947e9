// Package server wires the dependency graph and runs the HTTP server: the
// sqlite store feeds the services, the services feed the handlers, and chi
// maps routes onto them. All wiring lives here so main.go stays minimal.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tanvir/identity/internal/auth"
	"github.com/tanvir/identity/internal/handler"
	"github.com/tanvir/identity/internal/middleware"
	sqliteRepo "github.com/tanvir/identity/internal/repository/sqlite"
	"github.com/tanvir/identity/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port   int
	DBPath string

	// GitHub OAuth app credentials. When the client id is empty the OAuth
	// routes respond 503 and only the direct link endpoint is usable.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the store, builds the services and handlers, and mounts the
// routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// POST  /api/users                        create account
// GET   /api/users                        search (keyword, skills, paging)
// GET   /api/users/{userID}               fetch one user
// PATCH /api/users/{userID}               partial profile update
// GET   /api/users/{userID}/exists        id existence check
// POST  /api/users/{userID}/skills        tag skills
// PUT   /api/users/{userID}/github-link   link/relink a GitHub identity
// GET   /api/emails/exists                email existence check
// POST  /api/auth/login                   credential verification
// GET   /auth/github                      start the OAuth link flow
// GET   /auth/github/callback             finish the OAuth link flow
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords := auth.NewPasswordService()
	accounts := service.NewAccountService(s.db, passwords, s.logger)
	profiles := service.NewProfileService(s.db, s.logger)
	links := service.NewLinkService(s.db, s.logger)
	search := service.NewSearchService(s.db, s.logger)

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	userHandler := handler.NewUserHandler(accounts, profiles, search, s.logger)
	authHandler := handler.NewAuthHandler(accounts, s.logger)
	linkHandler := handler.NewLinkHandler(github, links, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users", userHandler.HandleCreate)
		r.Get("/users", userHandler.HandleSearch)
		r.Get("/users/{userID}", userHandler.HandleGet)
		r.Patch("/users/{userID}", userHandler.HandleUpdate)
		r.Get("/users/{userID}/exists", userHandler.HandleExists)
		r.Post("/users/{userID}/skills", userHandler.HandleTagSkills)
		r.Put("/users/{userID}/github-link", linkHandler.HandleLink)
		r.Get("/emails/exists", userHandler.HandleEmailExists)
		r.Post("/auth/login", authHandler.HandleLogin)
	})

	s.router.Get("/auth/github", linkHandler.HandleGitHubAuthorize)
	s.router.Get("/auth/github/callback", linkHandler.HandleGitHubCallback)
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests for up to 30 seconds,
// and close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
