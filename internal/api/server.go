package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquasense/aquasense/internal/session"
	"github.com/aquasense/aquasense/internal/tools"
)

// ServerConfig configures the API server.
type ServerConfig struct {
	Logger       *slog.Logger
	TurnHandler  TurnHandler      // Required
	SessionStore session.Store    // Required
	Registry     *tools.Registry  // Optional: nil disables GET /api/v1/tools
	Pool         *pgxpool.Pool    // Optional: nil skips the database readiness ping
	TrustProxy   bool             // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst    int              // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.TurnHandler == nil {
		return nil, errors.New("turn handler is required")
	}
	if cfg.SessionStore == nil {
		return nil, errors.New("session store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{turns: cfg.TurnHandler, logger: logger}
	sh := &sessionHandler{store: cfg.SessionStore, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", ch.send)
	mux.HandleFunc("GET /api/v1/sessions/{id}", sh.get)
	mux.HandleFunc("GET /api/v1/sessions/{id}/history", sh.history)
	if cfg.Registry != nil {
		th := &toolsHandler{registry: cfg.Registry, logger: logger}
		mux.HandleFunc("GET /api/v1/tools", th.list)
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack, outermost first:
	//   Recovery → RequestID → Logging → RateLimit → Routes
	// RequestID sits before Logging so request_id is available in log lines.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack: probes should not burn
	// rate limit tokens or spam the request log.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
