package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assistkit/inboxbridge/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default listen address for the metrics
	// server.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of the HTTP servers.
	DefaultShutdownTimeout = 30 * time.Second

	metricsReadTimeout  = 10 * time.Second
	metricsWriteTimeout = 10 * time.Second
	metricsIdleTimeout  = 60 * time.Second
)

// MetricsServerConfig configures the Prometheus scrape endpoint.
type MetricsServerConfig struct {
	// Addr to bind, e.g. ":9090".
	Addr string

	// Enabled gates whether the server is started at all.
	Enabled bool

	// InstrumentationProvider must be enabled; its prometheus exporter
	// feeds the global registry that /metrics exposes.
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer exposes /metrics on a dedicated port, kept separate from
// the MCP transport so scrape traffic never mixes with tool calls.
type MetricsServer struct {
	httpServer *http.Server
	addr       string
}

// NewMetricsServer validates the configuration and returns a server ready
// to Start.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.InstrumentationProvider == nil || !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("metrics server needs an enabled instrumentation provider")
	}
	return &MetricsServer{addr: config.Addr}, nil
}

// Start serves until the listener fails or Shutdown is called. Run it in a
// goroutine next to the MCP transport.
func (s *MetricsServer) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}

	slog.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains the metrics listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}
