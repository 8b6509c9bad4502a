// Package server is the composition root: it wires the database, services,
// handlers, and middleware together and owns the HTTP server lifecycle.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below this package ever
// sees the router.
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

	"github.com/sakif/code-editor-backend/internal/auth"
	"github.com/sakif/code-editor-backend/internal/config"
	"github.com/sakif/code-editor-backend/internal/executor"
	"github.com/sakif/code-editor-backend/internal/handler"
	"github.com/sakif/code-editor-backend/internal/middleware"
	sqliteRepo "github.com/sakif/code-editor-backend/internal/repository/sqlite"
	"github.com/sakif/code-editor-backend/internal/service"
)

// Server owns the router, the database connection, and the configuration it
// was built from. The database is closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. runner may be nil when the Docker
// sandbox is disabled or unreachable; the run endpoint then responds 503.
func New(cfg config.Config, runner executor.Executor, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(runner); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and mounts every route.
//
// ROUTE MAP:
//
//	POST   /api/auth/register        → local account + token
//	POST   /api/auth/login           → local sign-in
//	GET    /auth/github/login        → redirect to GitHub
//	GET    /auth/github/callback     → complete OAuth, issue token
//	GET    /api/me                   → current user          (auth)
//	GET    /api/codefiles            → list owned files      (auth)
//	POST   /api/codefiles            → create file           (auth)
//	GET    /api/codefiles/{id}       → fetch one file        (auth)
//	PUT    /api/codefiles/{id}       → partial update        (auth)
//	DELETE /api/codefiles/{id}       → delete file           (auth)
//	POST   /api/codefiles/{id}/run   → execute in sandbox    (auth)
//
// Each protected route is wired with its own catch-all failure message so
// legacy-mode token decode errors surface exactly as that endpoint's 500.
func (s *Server) setupRoutes(runner executor.Executor) error {
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	authmw := auth.NewMiddleware(tokens, s.config.LegacyAuthErrors)
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Info("GitHub OAuth not configured, /auth/github routes disabled")
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, s.logger)

	codeFileService := service.NewCodeFileService(s.db, runner, s.logger)
	codeFileHandler := handler.NewCodeFileHandler(codeFileService, s.logger)

	s.router.Route("/auth/github", func(r chi.Router) {
		r.Get("/login", authHandler.HandleGitHubLogin)
		r.Get("/callback", authHandler.HandleGitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		r.With(authmw.Require("Could not fetch user")).Get("/me", authHandler.HandleMe)

		r.Route("/codefiles", func(r chi.Router) {
			r.With(authmw.Require(handler.MsgListFailed)).Get("/", codeFileHandler.HandleList)
			r.With(authmw.Require(handler.MsgCreateFailed)).Post("/", codeFileHandler.HandleCreate)
			r.With(authmw.Require(handler.MsgGetFailed)).Get("/{id}", codeFileHandler.HandleGetByID)
			r.With(authmw.Require(handler.MsgUpdateFailed)).Put("/{id}", codeFileHandler.HandleUpdate)
			r.With(authmw.Require(handler.MsgDeleteFailed)).Delete("/{id}", codeFileHandler.HandleDelete)
			r.With(authmw.Require(handler.MsgRunFailed)).Post("/{id}/run", codeFileHandler.HandleRun)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, and close the database so the WAL is flushed.
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
