// Package http exposes the expense ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"centime/internal/auth"
	"centime/internal/cache"
	"centime/internal/log"
	"centime/internal/services"
	"centime/internal/storage"

	"github.com/google/uuid"
)

type Server struct {
	http.Server
	repo          *storage.SQLiteRepository
	ledger        *services.Ledger
	codec         *auth.TokenCodec
	secureCookies bool
	logger        *log.Logger
	rateLimiter   *rateLimiter

	// reportCache keeps recently requested report payloads warm; keys
	// are "userID|year|month" and a mutation drops the whole user-year.
	reportCache *cache.Cache[*services.Report]

	stopJanitor  chan struct{}
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, repo *storage.SQLiteRepository, ledger *services.Ledger, codec *auth.TokenCodec, secureCookies bool, reportCacheTTL time.Duration, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr: addr,
		},
		repo:          repo,
		ledger:        ledger,
		codec:         codec,
		secureCookies: secureCookies,
		logger:        logger.WithComponent(log.ComponentHTTP),
		rateLimiter:   newRateLimiter(),
		reportCache:   cache.New[*services.Report](256, reportCacheTTL),
		stopJanitor:   make(chan struct{}),
	}
	s.Handler = log.Middleware(s.logger)(mux)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /auth/register", s.with(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.with(s.handleLogin))
	mux.HandleFunc("POST /auth/logout", s.with(s.handleLogout))
	mux.HandleFunc("GET /auth/me", s.with(s.handleMe))

	mux.HandleFunc("GET /expenses", s.with(s.handleListExpenses))
	mux.HandleFunc("POST /expenses", s.with(s.handleCreateExpense))
	mux.HandleFunc("DELETE /expenses/{id}", s.with(s.handleDeleteExpense))

	mux.HandleFunc("GET /reports", s.with(s.handleReport))

	go s.janitor()

	return s
}

// with adds request ID, logging, security headers, and rate limiting
// around a handler.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		logger := log.FromContext(r.Context()).With("request_id", requestID)
		r = r.WithContext(log.WithLogger(r.Context(), logger))

		logger.InfoContext(r.Context(), "Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", clientIP)

		if isMutation(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(r.Context(), "Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func isMutation(method string) bool {
	return method == http.MethodPost || method == http.MethodDelete
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// janitor periodically drops expired cache entries and stale rate
// limiter clients.
func (s *Server) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportCache.CleanExpired()
			s.rateLimiter.cleanupStale()
		case <-s.stopJanitor:
			return
		}
	}
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopJanitor)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
