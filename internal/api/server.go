// Package api provides the HTTP and websocket surface of the scanner.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/solana-scanner/internal/logging"
	"github.com/solana-scanner/internal/models"
	"github.com/solana-scanner/internal/storage"
)

// Refresher builds placeholder records for newly requested addresses
type Refresher interface {
	MinimalRecord(address string) models.AccountRecord
}

// RefreshEnqueuer accepts fire-and-forget refresh requests
type RefreshEnqueuer interface {
	Enqueue(address string) bool
}

// Watchlist persists addresses so the background scanner keeps tracking them
// across restarts. Optional; nil disables persistence.
type Watchlist interface {
	Add(ctx context.Context, address string) error
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// Server represents the HTTP API server
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	store      storage.AccountStore
	refresher  Refresher
	pool       RefreshEnqueuer
	watchlist  Watchlist
	wsHandler  http.HandlerFunc
	config     *ServerConfig
	logger     *logging.Logger
}

// NewServer creates a new API server instance. wsHandler serves the
// websocket subscription endpoint.
func NewServer(
	config *ServerConfig,
	store storage.AccountStore,
	refresher Refresher,
	pool RefreshEnqueuer,
	wsHandler http.HandlerFunc,
) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		store:     store,
		refresher: refresher,
		pool:      pool,
		wsHandler: wsHandler,
		config:    config,
		logger:    logging.Global().WithField("component", "api"),
	}

	s.setupRouter()
	return s
}

// SetWatchlist enables watchlist persistence for newly requested addresses
func (s *Server) SetWatchlist(w Watchlist) {
	s.watchlist = w
}

func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst)

	// Middleware order matters: log everything, recover before CORS
	s.router.Use(LoggingMiddleware)
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

func (s *Server) setupRoutes() {
	// OPTIONS is routed so the CORS middleware can answer preflights
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET", "OPTIONS")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/accounts", s.handleListAccounts).Methods("GET", "OPTIONS")
	api.HandleFunc("/account/{address}", s.handleGetAccount).Methods("GET", "OPTIONS")

	if s.wsHandler != nil {
		s.router.HandleFunc("/ws", s.wsHandler)
	}
}

// Handler exposes the routed handler, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
