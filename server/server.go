// Package server exposes the terminal dispatcher over HTTP. Each browser session is identified
// by a cookie; one POST carries one line of terminal input and returns one output envelope.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mwantia/webdesk/auth"
	"github.com/mwantia/webdesk/dispatch"
	"github.com/mwantia/webdesk/log"
	"golang.org/x/time/rate"
)

const (
	CookieName     = "webdesk_session"
	MaxRequestBody = 64 << 10
)

type Server struct {
	dispatcher *dispatch.Dispatcher
	manager    *auth.Manager
	log        *log.Logger
	limiter    *sessionLimiter

	cookieSecure    bool
	shutdownTimeout time.Duration
	mux             *http.ServeMux
}

type Option func(*Server) error

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

// WithRateLimit allows perSecond terminal requests per session with bursts up to burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) error {
		if perSecond <= 0 || burst <= 0 {
			return fmt.Errorf("invalid rate limit %v/%d", perSecond, burst)
		}
		s.limiter = newSessionLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithSecureCookie marks the session cookie as HTTPS only.
func WithSecureCookie(secure bool) Option {
	return func(s *Server) error {
		s.cookieSecure = secure
		return nil
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		s.shutdownTimeout = timeout
		return nil
	}
}

func New(dispatcher *dispatch.Dispatcher, manager *auth.Manager, opts ...Option) (*Server, error) {
	s := &Server{
		dispatcher:      dispatcher,
		manager:         manager,
		log:             log.Discard(),
		limiter:         newSessionLimiter(rate.Limit(5), 10),
		shutdownTimeout: 10 * time.Second,
		mux:             http.NewServeMux(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.mux.Handle("POST /api/terminal", s.withSession(s.rateLimited(s.handleTerminal)))
	s.mux.Handle("GET /api/commands", s.withSession(s.handleCommands))
	s.mux.Handle("GET /api/session", s.withSession(s.handleSession))
	s.mux.HandleFunc("GET /api/shares/{token}", s.handleShare)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Handler returns the HTTP handler with logging and panic recovery applied.
func (s *Server) Handler() http.Handler {
	return chain(s.logging, s.recovery)(s.mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
