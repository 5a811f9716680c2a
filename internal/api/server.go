// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/solana-scout/internal/circuitbreaker"
	"github.com/solana-scout/internal/logging"
	"github.com/solana-scout/internal/ratelimit"
	"github.com/solana-scout/internal/types"
)

// ReportService builds single-wallet reports
type ReportService interface {
	BuildReport(ctx context.Context, address string) (*types.WalletReport, error)
}

// ComparisonService compares two wallets
type ComparisonService interface {
	Compare(ctx context.Context, addressA, addressB string) (*types.ComparisonReport, error)
}

// BudgetReporter exposes shared RPC budget usage
type BudgetReporter interface {
	Usage(ctx context.Context) (*ratelimit.Usage, error)
}

// Server represents the HTTP API server.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	reports     ReportService
	comparisons ComparisonService
	breaker     *circuitbreaker.CircuitBreaker
	budget      BudgetReporter
	config      *ServerConfig
	logger      *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestTimeout    time.Duration // deadline for one report or comparison
	RequestsPerSecond float64       // per client
	Burst             int
}

// ServerOption configures optional server dependencies
type ServerOption func(*Server)

// WithBreaker reports the RPC circuit breaker on /health
func WithBreaker(cb *circuitbreaker.CircuitBreaker) ServerOption {
	return func(s *Server) {
		s.breaker = cb
	}
}

// WithBudget reports shared RPC budget usage on /health
func WithBudget(b BudgetReporter) ServerOption {
	return func(s *Server) {
		s.budget = b
	}
}

// WithLogger sets the server logger
func WithLogger(l *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, reports ReportService, comparisons ComparisonService, opts ...ServerOption) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		reports:     reports,
		comparisons: comparisons,
		config:      config,
		logger:      logging.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// Recovery sits inside compression so a panic response is encoded like any other
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(CompressionMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// OPTIONS is routed so CORS preflight reaches the middleware
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/wallets/{address}", s.handleWalletReport).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/compare/{a}/{b}", s.handleCompare).Methods(http.MethodGet, http.MethodOptions)
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
