// package server contains middleware & handlers for the practice log web service
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/practicelog/internal/services"
	"github.com/desertthunder/practicelog/internal/shared"
	"golang.org/x/time/rate"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

var _ Router = (*BasicRouter)(nil)

// Server exposes the practice log API over HTTP.
type Server struct {
	config   *shared.Config
	auth     *services.AuthService
	practice *services.PracticeService
	db       Pinger
	cookies  *CookieHelper
	logger   *log.Logger
	router   *BasicRouter
}

// NewServer wires the routes and middleware for the API.
func NewServer(config *shared.Config, auth *services.AuthService, practice *services.PracticeService, db Pinger, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Server{
		config:   config,
		auth:     auth,
		practice: practice,
		db:       db,
		cookies:  NewCookieHelper(config.Session),
		logger:   logger,
		router:   NewBasicRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(
		RequestLogger(s.logger),
		Recoverer(s.logger),
		CSRF(s.config.Server.FrontendURL),
		Session(s.auth, s.cookies, s.logger),
	)

	limited := RateLimit(rate.Limit(s.config.Server.AuthRateLimit), s.config.Server.AuthRateBurst, 10*time.Minute)

	r.Handler(NewHealthHandler(s.db))

	r.Handle(http.MethodPost, "/api/create_user", limited(http.HandlerFunc(s.handleCreateUser)))
	r.Handle(http.MethodPost, "/api/login", limited(http.HandlerFunc(s.handleLogin)))
	r.HandleFunc(http.MethodGet, "/api/logout", s.handleLogout)
	r.HandleFunc(http.MethodPost, "/api/logout", s.handleLogout)
	r.HandleFunc(http.MethodGet, "/api/current_user", s.requireUser(s.handleCurrentUser))

	r.HandleFunc(http.MethodGet, "/api/get_pieces", s.handleGetPieces)
	r.HandleFunc(http.MethodPost, "/api/create_piece", s.requireUser(s.handleCreatePiece))
	r.HandleFunc(http.MethodDelete, "/api/delete_piece/{piece_id}", s.requireUser(s.handleDeletePiece))

	r.HandleFunc(http.MethodGet, "/api/get_practice_sessions", s.requireUser(s.handleGetPracticeSessions))
	r.HandleFunc(http.MethodPost, "/api/create_practice_session", s.requireUser(s.handleCreatePracticeSession))
	r.HandleFunc(http.MethodDelete, "/api/delete_practice_session/{practice_session_id}", s.requireUser(s.handleDeletePracticeSession))

	r.HandleFunc(http.MethodPost, "/api/create_piece_practiced", s.requireUser(s.handleCreatePiecePracticed))
	r.HandleFunc(http.MethodDelete, "/api/delete_piece_practiced/{practice_session_id}/{piece_id}", s.requireUser(s.handleDeletePiecePracticed))
}

// Handler returns the root handler. CORS wraps the router so that preflight requests
// are answered before method routing.
func (s *Server) Handler() http.Handler {
	return CORS(s.config.Server.FrontendURL)(s.router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down within the configured grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.config.Server.Addr()
	grace := s.config.Server.Grace()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server", "grace", grace)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	s.logger.Info("HTTP server listening", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-idleConnsClosed
	return nil
}
