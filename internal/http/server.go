// Package http exposes the spend store over a JSON API: filtered
// aggregation reads, spreadsheet uploads that replace the store, and a
// reset back to the on-disk sources.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cloudspend/internal/aggregate"
	"cloudspend/internal/amqp"
	"cloudspend/internal/cache"
	"cloudspend/internal/core"
	"cloudspend/internal/loader"
	"cloudspend/internal/store"
)

// Mirror persists the uploaded record set across restarts. A nil mirror
// disables persistence.
type Mirror interface {
	SaveSet(ctx context.Context, records []core.SpendRecord) error
	Clear(ctx context.Context) error
}

// EventPublisher announces completed ingestion batches. A nil publisher
// disables events.
type EventPublisher interface {
	PublishBatchIngested(ctx context.Context, msg *amqp.BatchIngestedMessage) error
}

// Deps carries the collaborators the server needs. Mirror and Events are
// optional.
type Deps struct {
	Store  *store.Store
	Loader *loader.Loader
	Mirror Mirror
	Events EventPublisher

	MaxUploadBytes int64
	CacheSize      int
	CacheTTL       time.Duration
}

type Server struct {
	http.Server

	store  *store.Store
	loader *loader.Loader
	mirror Mirror
	events EventPublisher

	maxUploadBytes int64
	spendCache     *cache.LRUCache[aggregate.Result]
	rateLimiter    *rateLimiter

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 16 << 20
	}
	if deps.CacheSize <= 0 {
		deps.CacheSize = 64
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:          deps.Store,
		loader:         deps.Loader,
		mirror:         deps.Mirror,
		events:         deps.Events,
		maxUploadBytes: deps.MaxUploadBytes,
		spendCache:     cache.NewLRUCache[aggregate.Result](deps.CacheSize, deps.CacheTTL),
		rateLimiter:    newRateLimiter(),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.spendCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/api/spend", s.withAPIMiddleware(s.handleSpend))
	mux.HandleFunc("/api/upload", s.withAPIMiddleware(s.handleUpload))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	return s
}

// Shutdown stops the HTTP server and the background cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withAPIMiddleware adds CORS, security headers, rate limiting, and request
// logging to a handler.
func (s *Server) withAPIMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Mutations replace the whole store, so they get rate limited.
		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
