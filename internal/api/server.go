package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tasklane/tasklane-core/internal/audit"
	"github.com/tasklane/tasklane-core/internal/auth"
	"github.com/tasklane/tasklane-core/internal/company"
	"github.com/tasklane/tasklane-core/internal/events"
	"github.com/tasklane/tasklane-core/internal/infrastructure/config"
	"github.com/tasklane/tasklane-core/internal/infrastructure/database"
	"github.com/tasklane/tasklane-core/internal/infrastructure/influxdb"
	"github.com/tasklane/tasklane-core/internal/infrastructure/logging"
	"github.com/tasklane/tasklane-core/internal/infrastructure/mqtt"
	"github.com/tasklane/tasklane-core/internal/metrics"
	"github.com/tasklane/tasklane-core/internal/project"
	"github.com/tasklane/tasklane-core/internal/task"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Metrics   config.MetricsConfig
	Logger    *logging.Logger
	DB        *database.DB
	Auth      *auth.Service
	Users     auth.UserRepository
	Sessions  auth.SessionRepository
	Companies company.Repository
	Projects  project.Repository
	Tasks     task.Repository
	AuditRepo audit.Repository

	// Optional.
	Events     events.Publisher
	Prometheus *metrics.Metrics
	InfluxDB   *influxdb.Client
	MQTT       *mqtt.Client
	Version    string
}

// Server is the HTTP API server for Tasklane Core.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	metricsCfg config.MetricsConfig
	logger     *logging.Logger
	db         *database.DB
	auth       *auth.Service
	users      auth.UserRepository
	sessions   auth.SessionRepository
	companies  company.Repository
	projects   project.Repository
	tasks      task.Repository
	auditRepo  audit.Repository
	auditCh    chan *audit.AuditLog
	events     events.Publisher
	prom       *metrics.Metrics
	influx     *influxdb.Client
	mqtt       *mqtt.Client
	version    string
	startTime  time.Time
	server     *http.Server
	cancel     context.CancelFunc // cancels background goroutines on Close()
	auditDone  chan struct{}
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, errors.New("logger is required")
	case deps.DB == nil:
		return nil, errors.New("database is required")
	case deps.Auth == nil:
		return nil, errors.New("auth service is required")
	case deps.Users == nil || deps.Sessions == nil:
		return nil, errors.New("user and session repositories are required")
	case deps.Companies == nil || deps.Projects == nil || deps.Tasks == nil:
		return nil, errors.New("company, project and task repositories are required")
	}

	publisher := deps.Events
	if publisher == nil {
		publisher = events.Nop{}
	}

	s := &Server{
		cfg:        deps.Config,
		metricsCfg: deps.Metrics,
		logger:     deps.Logger.With("component", "api"),
		db:         deps.DB,
		auth:       deps.Auth,
		users:      deps.Users,
		sessions:   deps.Sessions,
		companies:  deps.Companies,
		projects:   deps.Projects,
		tasks:      deps.Tasks,
		auditRepo:  deps.AuditRepo,
		events:     publisher,
		prom:       deps.Prometheus,
		influx:     deps.InfluxDB,
		mqtt:       deps.MQTT,
		version:    deps.Version,
		startTime:  time.Now(),
	}
	if s.auditRepo != nil {
		s.auditCh = make(chan *audit.AuditLog, auditChanSize)
	}
	return s, nil
}

// Start launches the audit writer and begins listening for HTTP
// connections in a background goroutine. The server can be stopped with
// Close().
func (s *Server) Start(ctx context.Context) error {
	// The audit writer outlives ctx so Close can drain it after Shutdown.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	if s.auditCh != nil {
		s.auditDone = make(chan struct{})
		go func() {
			defer close(s.auditDone)
			s.drainAuditLog(srvCtx)
		}()
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
// It waits up to 10 seconds for in-flight requests to complete, then
// flushes pending audit entries.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	// Stop the audit writer only after handlers have finished enqueueing.
	if s.cancel != nil {
		s.cancel()
	}
	if s.auditDone != nil {
		<-s.auditDone
	}

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
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

// Handler returns the fully wired router. Used by tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}
