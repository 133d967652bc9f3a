// Package server exposes the sentinel's HTTP surface: the sanitization
// endpoints and the AWS debugging tools. Every string produced by a tool
// passes through the redaction engine before it is written to a response.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sentinelops/aws-log-sentinel/internal/audit"
	"github.com/sentinelops/aws-log-sentinel/internal/cache"
	"github.com/sentinelops/aws-log-sentinel/internal/cloud"
	"github.com/sentinelops/aws-log-sentinel/internal/config"
	"github.com/sentinelops/aws-log-sentinel/internal/events"
	"github.com/sentinelops/aws-log-sentinel/internal/logger"
	"github.com/sentinelops/aws-log-sentinel/internal/redact"
	"github.com/sentinelops/aws-log-sentinel/internal/security"
)

// LogQuerier is the CloudWatch query surface used by the log tools
type LogQuerier interface {
	RecentErrors(ctx context.Context, logGroup string, minutes int) (*cloud.ErrorReport, error)
	ListLogGroups(ctx context.Context, prefix string) (*cloud.LogGroupList, error)
}

// DeployQuerier is the CodeDeploy query surface used by the deployment tool
type DeployQuerier interface {
	DeploymentStatus(ctx context.Context, application string) (*cloud.DeploymentReport, error)
}

// Server is the sentinel HTTP service
type Server struct {
	cfg     *config.Config
	logger  *logger.Logger
	engine  *redact.Engine
	logs    LogQuerier
	deploys DeployQuerier
	cache   *cache.QueryCache // nil when disabled
	audit   *audit.Store      // nil when disabled
	hub     *events.Hub
	limiter *security.RateLimiter
	router  *mux.Router
	server  *http.Server
}

// New creates the sentinel server. cache and auditStore may be nil when the
// corresponding subsystems are disabled.
func New(
	cfg *config.Config,
	log *logger.Logger,
	engine *redact.Engine,
	logs LogQuerier,
	deploys DeployQuerier,
	queryCache *cache.QueryCache,
	auditStore *audit.Store,
) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  log.WithComponent("server"),
		engine:  engine,
		logs:    logs,
		deploys: deploys,
		cache:   queryCache,
		audit:   auditStore,
		hub:     events.NewHub(cfg.WebSocket, log.WithComponent("events")),
		limiter: security.NewRateLimiter(cfg.Security.RateLimit),
		router:  mux.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	if s.cfg.WebSocket.Enabled {
		s.router.HandleFunc(s.cfg.WebSocket.Path, s.hub.HandleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)

	api.HandleFunc("/redact", s.handleRedact).Methods("POST")
	api.HandleFunc("/redact/batch", s.handleRedactBatch).Methods("POST")
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/logs/groups", s.handleListLogGroups).Methods("GET")
	api.HandleFunc("/logs/errors", s.handleRecentErrors).Methods("GET")
	api.HandleFunc("/deployments/{application}", s.handleDeploymentStatus).Methods("GET")
}

// Start starts the HTTP server and the event hub
func (s *Server) Start() error {
	s.logger.Info("Starting AWS Log Sentinel server",
		zap.Int("port", s.cfg.Server.Port),
		zap.Strings("profiles", s.engine.ListProfiles()),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("audit_enabled", s.audit != nil),
	)

	go s.hub.Run()

	if s.cfg.Security.RateLimit.Enabled {
		s.limiter.StartCleanupRoutine()
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping AWS Log Sentinel server")
	return s.server.Shutdown(ctx)
}

// Router exposes the route handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     "aws-log-sentinel",
		"version":  "0.1.0",
		"profiles": s.engine.ListProfiles(),
		"region":   s.cfg.AWS.Region,
	})
}
