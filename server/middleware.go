package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type sessionKey struct{}

// SessionID returns the session id stored by the session middleware.
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// withSession reuses a well-formed session cookie or issues a new one.
func (s *Server) withSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(CookieName); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				sid = id.String()
			}
		}

		if sid == "" {
			sid = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cookieSecure,
				SameSite: http.SameSiteStrictMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sid)))
	})
}

func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(SessionID(r.Context())) {
			w.Header().Set("Retry-After", "1")
			s.writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

// statusWriter captures the status code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.log.Debug("%s %s | %d | %s", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("Recovered panic in %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// chain applies middlewares so that the first one runs first.
func chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

const limiterIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// sessionLimiter keeps one token bucket per session and forgets idle sessions.
type sessionLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newSessionLimiter(limit rate.Limit, burst int) *sessionLimiter {
	return &sessionLimiter{
		limit:     limit,
		burst:     burst,
		entries:   make(map[string]*limiterEntry),
		lastSweep: time.Now(),
	}
}

func (sl *sessionLimiter) Allow(sid string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	now := time.Now()
	if now.Sub(sl.lastSweep) > limiterIdle {
		for key, entry := range sl.entries {
			if now.Sub(entry.lastSeen) > limiterIdle {
				delete(sl.entries, key)
			}
		}
		sl.lastSweep = now
	}

	entry, ok := sl.entries[sid]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(sl.limit, sl.burst)}
		sl.entries[sid] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}
