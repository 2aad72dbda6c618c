package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"userauth/backend/internal/config"
	"userauth/backend/internal/infrastructure/ratelimit"
	authusecase "userauth/backend/internal/usecase/auth"
	userusecase "userauth/backend/internal/usecase/user"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer  *http.Server
	router      *http.ServeMux
	authService *authusecase.Service
	userService *userusecase.Service
	limiter     ratelimit.Limiter
	logger      *slog.Logger
	metrics     *metrics
	loginLimit  int
	loginWindow time.Duration
	addr        string
}

// NewServer constructs a new Server with configured dependencies. A nil
// limiter disables rate limiting.
func NewServer(
	cfg config.Config,
	logger *slog.Logger,
	authService *authusecase.Service,
	userService *userusecase.Service,
	limiter ratelimit.Limiter,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	srv := &Server{
		router:      mux,
		authService: authService,
		userService: userService,
		limiter:     limiter,
		logger:      logger,
		metrics:     newMetrics(),
		loginLimit:  cfg.LoginRateLimit,
		loginWindow: cfg.LoginRateWindow,
		addr:        addr,
	}

	handler := withRequestID(withLogging(logger, withMetrics(srv.metrics, withCORS(mux, cfg.AllowedOrigins))))
	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}
	srv.registerRoutes()
	return srv
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
