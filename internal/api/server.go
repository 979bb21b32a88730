package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/kanban-core/internal/audit"
	"github.com/nerrad567/kanban-core/internal/auth"
	"github.com/nerrad567/kanban-core/internal/board"
	"github.com/nerrad567/kanban-core/internal/infrastructure/config"
	"github.com/nerrad567/kanban-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// EventPublisher publishes lifecycle events. *mqtt.Client satisfies it.
type EventPublisher interface {
	PublishJSON(topic string, v any) error
}

// MetricsRecorder records activity metrics. *influxdb.Client satisfies it.
type MetricsRecorder interface {
	WriteHTTPRequest(method, route string, status int, duration time.Duration)
	WriteAuthEvent(outcome string)
	WriteBoardEvent(action string)
}

// HealthChecker is implemented by the database handle.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
// Events and Metrics are optional; leave them nil when disabled.
type Deps struct {
	Config      config.APIConfig
	Security    config.SecurityConfig
	Logger      *logging.Logger
	DB          HealthChecker
	Auth        *auth.Service
	Boards      board.Repository
	Provisioner *board.Provisioner
	Guard       *board.Guard
	AuditRepo   audit.Repository
	Events      EventPublisher
	Metrics     MetricsRecorder
	Version     string
}

// Server is the HTTP API server.
//
// It owns the HTTP listener, routes, middleware and the asynchronous audit
// writer. The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	db          HealthChecker
	auth        *auth.Service
	boards      board.Repository
	provisioner *board.Provisioner
	guard       *board.Guard
	auditRepo   audit.Repository
	events      EventPublisher
	metrics     MetricsRecorder
	version     string

	loginLimiter *ipRateLimiter
	auditCh      chan *audit.AuditLog
	auditDone    chan struct{}

	startTime time.Time
	server    *http.Server
	cancel    context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Auth == nil {
		return nil, errors.New("auth service is required")
	}
	if deps.Boards == nil || deps.Provisioner == nil || deps.Guard == nil {
		return nil, errors.New("board repository, provisioner and guard are required")
	}

	s := &Server{
		cfg:         deps.Config,
		secCfg:      deps.Security,
		logger:      deps.Logger,
		db:          deps.DB,
		auth:        deps.Auth,
		boards:      deps.Boards,
		provisioner: deps.Provisioner,
		guard:       deps.Guard,
		auditRepo:   deps.AuditRepo,
		events:      deps.Events,
		metrics:     deps.Metrics,
		version:     deps.Version,
		startTime:   time.Now(),
	}

	if deps.Security.RateLimit.Enabled {
		s.loginLimiter = newIPRateLimiter(deps.Security.RateLimit.RequestsPerMinute, deps.Security.RateLimit.Burst)
	}
	if deps.AuditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}

	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine and
// starts the audit writer. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.auditCh != nil {
		s.auditDone = make(chan struct{})
		go func() {
			defer close(s.auditDone)
			s.drainAuditLog(srvCtx)
		}()
	}
	if s.loginLimiter != nil {
		go s.loginLimiter.cleanupLoop(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests, then stops the audit
// writer after it has flushed every queued entry.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	shutdownErr := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	if s.auditDone != nil {
		<-s.auditDone
	}

	if shutdownErr != nil {
		return fmt.Errorf("shutting down API server: %w", shutdownErr)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
