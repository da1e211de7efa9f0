package metric

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fishinsevens/Jassistant/errors"
)

// Server exposes a MetricsRegistry on an operator-facing HTTP endpoint.
type Server struct {
	port     int
	path     string
	server   *http.Server
	registry *MetricsRegistry
	mu       sync.Mutex // protects server field
}

// NewServer creates a new metrics server with the provided registry.
func NewServer(port int, path string, registry *MetricsRegistry) *Server {
	if path == "" {
		path = "/metrics"
	}
	if port == 0 {
		port = 9090
	}

	return &Server{
		port:     port,
		path:     path,
		registry: registry,
	}
}

// Handler returns the promhttp handler for the registry, for callers that
// want to mount metrics on an existing mux instead of a dedicated server.
func (s *Server) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry.PrometheusRegistry(), promhttp.HandlerOpts{})
}

// Start starts the metrics HTTP server. It returns once the listener is
// launched; serve errors are logged from the serving goroutine.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.WrapInvalid(
			fmt.Errorf("server already running on port %d", s.port),
			"metric.Server", "Start", "start metrics server")
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, s.Handler())

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv := s.server
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", "error", err, "port", s.port)
		}
	}()

	slog.Info("Metrics server started", "port", s.port, "path", s.path)
	return nil
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	err := s.server.Shutdown(ctx)
	s.server = nil
	if err != nil {
		return errors.WrapTransient(err, "metric.Server", "Stop", "shutdown metrics server")
	}
	return nil
}
