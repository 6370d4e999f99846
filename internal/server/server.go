// Package server is the composition root: it builds the services and
// handlers on top of a repository.Store, mounts them on a chi router and runs
// the HTTP server until SIGINT or SIGTERM.
//
// ROUTES:
//
//	GET  /health                              liveness
//	GET  /auth/github/login                   start sign-in          (GitHub configured)
//	GET  /auth/github/callback                finish sign-in         (GitHub configured)
//	POST /auth/logout                         clear session
//	     /api/...                             owner JSON API         (session required, 401)
//	     /api/public/...                      visitor JSON API
//	GET  /submit/{slug}, POST /submit/{slug}  public submission form
//	GET  /dashboard, GET /event/{slug}        owner pages            (session required, 303)
//
// Middleware runs in the order it is added: request id, real IP, panic
// recovery, then request logging.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gossip-stories/gossip/internal/auth"
	"github.com/gossip-stories/gossip/internal/config"
	"github.com/gossip-stories/gossip/internal/handler"
	"github.com/gossip-stories/gossip/internal/middleware"
	"github.com/gossip-stories/gossip/internal/repository"
	"github.com/gossip-stories/gossip/internal/service"
)

// Server owns the router and the store. The store is closed when Start
// returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	tokens *auth.TokenService
}

// New wires every layer:
//
//	store → Guard → EventService / StoryService → handlers → routes
//
// Handlers only see services; services only see repository interfaces.
func New(cfg config.Config, logger *slog.Logger, store repository.Store) (*Server, error) {
	tokens, err := newTokenService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// newTokenService falls back to a random per-process secret when
// SESSION_SECRET is unset. Sessions then do not survive a restart.
func newTokenService(cfg config.Config, logger *slog.Logger) (*auth.TokenService, error) {
	secret := cfg.SessionSecret
	if secret == "" {
		logger.Warn("SESSION_SECRET not set, using an ephemeral secret")
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(buf)
	}
	return auth.NewTokenService(secret, cfg.SessionTTL)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	guard := service.NewGuard(s.store, s.logger)
	events := service.NewEventService(s.store, guard, s.logger)
	stories := service.NewStoryService(s.store, guard, s.logger)

	eventHandler := handler.NewEventHandler(events, guard, s.logger)
	storyHandler := handler.NewStoryHandler(stories, guard, s.logger)
	publicHandler := handler.NewPublicHandler(events, stories, guard, s.logger)

	pageHandler, err := handler.NewPageHandler(events, stories, guard, s.logger)
	if err != nil {
		return fmt.Errorf("creating page handler: %w", err)
	}

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// === Auth ===
	var provider handler.IdentityProvider
	if s.config.AuthEnabled() {
		provider = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured, sign-in is disabled")
	}
	authHandler := handler.NewAuthHandler(provider, s.tokens, guard, s.config.CookieSecure, s.logger)

	if provider != nil {
		s.router.Get("/auth/github/login", authHandler.HandleLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleCallback)
	}
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	// === JSON API ===
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/public", func(r chi.Router) {
			r.Get("/events/{slug}", publicHandler.HandleEvent)
			r.Get("/events/{slug}/stories", publicHandler.HandleStories)
			r.Post("/stories", publicHandler.HandleSubmit)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Get("/dashboard", eventHandler.HandleDashboard)

			r.Post("/events", eventHandler.HandleCreate)
			r.Get("/events/{eventID}", eventHandler.HandleGet)
			r.Put("/events/{eventID}", eventHandler.HandleUpdate)
			r.Patch("/events/{eventID}/toggle", eventHandler.HandleToggle)
			r.Delete("/events/{eventID}", eventHandler.HandleDelete)

			r.Get("/stories/{storyID}", storyHandler.HandleGet)
			r.Patch("/stories/{storyID}/status", storyHandler.HandleSetStatus)
			r.Put("/stories/{storyID}/tags", storyHandler.HandleSetTags)
		})
	})

	// === Pages ===
	s.router.Get("/submit/{slug}", pageHandler.HandleSubmitForm)
	s.router.Post("/submit/{slug}", pageHandler.HandleSubmit)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RedirectToSignIn(s.tokens, handler.LoginPath))
		r.Get("/dashboard", pageHandler.HandleDashboard)
		r.Get("/event/{slug}", pageHandler.HandleEvent)
	})

	s.router.With(auth.OptionalAuth(s.tokens)).Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.IdentityFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, handler.LoginPath, http.StatusSeeOther)
	})

	return nil
}

// Start runs the server and blocks until it fails or a shutdown signal
// arrives. In-flight requests get 30 seconds to finish, then the store is
// closed.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("db_driver", s.config.DBDriver),
			slog.Bool("auth_enabled", s.config.AuthEnabled()),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
