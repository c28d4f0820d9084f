package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	memorystorage "github.com/giantswarm/mcp-oauth/storage/memory"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/instrumentation"
	"github.com/assistkit/inboxbridge/internal/server"
	"github.com/assistkit/inboxbridge/internal/tools/calendar_tools"
	"github.com/assistkit/inboxbridge/internal/tools/gmail_tools"
)

// envKeyReplacer maps flag names to env var fragments, so --http-addr is
// read from INBOXBRIDGE_HTTP_ADDR.
var envKeyReplacer = strings.NewReplacer("-", "_")

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing the email and
calendar tools to a conversational agent.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Google OAuth credentials are needed for token refresh:
  --google-client-id and --google-client-secret flags
  OR INBOXBRIDGE_GOOGLE_CLIENT_ID / INBOXBRIDGE_GOOGLE_CLIENT_SECRET
  OR the conventional GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET env vars.

For the stdio transport, run "inboxbridge authorize" first to link a
Google account. The HTTP transport derives a session per bearer token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			v.SetEnvPrefix("INBOXBRIDGE")
			v.SetEnvKeyReplacer(envKeyReplacer)
			v.AutomaticEnv()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			cfg := serveConfig{
				Transport:          v.GetString("transport"),
				HTTPAddr:           v.GetString("http-addr"),
				Debug:              v.GetBool("debug"),
				MetricsEnabled:     v.GetBool("metrics-enabled"),
				MetricsAddr:        v.GetString("metrics-addr"),
				GoogleClientID:     v.GetString("google-client-id"),
				GoogleClientSecret: v.GetString("google-client-secret"),
				GoogleRedirectURL:  v.GetString("google-redirect-url"),
				CacheTTL:           v.GetDuration("cache-ttl"),
				SessionTimeout:     v.GetDuration("session-timeout"),
			}

			// Conventional env var names still work without the prefix.
			if cfg.GoogleClientID == "" {
				cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
			}
			if cfg.GoogleClientSecret == "" {
				cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
			}

			return runServe(cfg)
		},
	}

	cmd.Flags().Bool("debug", false, "Enable debug logging")
	cmd.Flags().String("transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().String("http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().String("google-client-id", "", "Google OAuth Client ID for token refresh")
	cmd.Flags().String("google-client-secret", "", "Google OAuth Client Secret for token refresh")
	cmd.Flags().String("google-redirect-url", "", "Google OAuth redirect URL (default: out-of-band)")
	cmd.Flags().Bool("metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address")
	cmd.Flags().Duration("cache-ttl", server.DefaultCacheTTL, "TTL for cached read-only tool responses")
	cmd.Flags().Duration("session-timeout", server.DefaultSessionTimeout, "Idle timeout before a session is dropped")

	return cmd
}

// serveConfig collects the resolved serve settings from flags and env.
type serveConfig struct {
	Transport          string
	HTTPAddr           string
	Debug              bool
	MetricsEnabled     bool
	MetricsAddr        string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	CacheTTL           time.Duration
	SessionTimeout     time.Duration
}

func runServe(cfg serveConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	// Stdout belongs to the protocol on the stdio transport.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("instrumentation shutdown failed", "error", err)
		}
	}()

	sink := instrumentation.NewSink(logger, provider.Metrics(), instrConfig.SinkBuffer)

	// The HTTP transport runs multi-session and uses the hardened
	// mcp-oauth storage backend; stdio keeps the simple in-process store.
	var store google.TokenStore
	if cfg.Transport == "streamable-http" {
		backing := memorystorage.New()
		defer backing.Stop()
		store = google.NewStorageTokenStore(backing)
	} else {
		memStore := google.NewMemoryTokenStore()
		memStore.SetLogger(logger)
		store = memStore
	}

	// A credential linked via the authorize command serves the stdio
	// session.
	if token, err := loadTokenFile(); err == nil && token != nil {
		if err := store.SaveToken(shutdownCtx, server.StdioSessionID, token); err != nil {
			logger.Warn("failed to load stored credential", "error", err)
		}
	}

	oauthConf := google.NewOAuth2Config(google.OAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	resolver := google.NewResolver(store, oauthConf,
		google.WithLogger(logger),
		google.WithMetrics(provider.Metrics()))

	serverContext, err := server.NewServerContext(shutdownCtx, server.ContextConfig{
		Resolver: resolver,
		Logger:   logger,
		Provider: provider,
		Sink:     sink,
		Cache:    server.NewResponseCache(cfg.CacheTTL, server.DefaultCacheEntries),
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", "error", err)
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxbridge", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch cfg.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, cfg, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", cfg.Transport)
	}
}

// registerAllTools binds every tool handler into one dispatch registry and
// exposes the tools on the MCP server. The registry must end up covering the
// whole closed tool enumeration; a gap is a wiring bug.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	reg := bridge.NewRegistry()
	if err := gmail_tools.RegisterGmailTools(mcpSrv, reg, sc); err != nil {
		return fmt.Errorf("failed to register Gmail tools: %w", err)
	}
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, reg, sc); err != nil {
		return fmt.Errorf("failed to register Calendar tools: %w", err)
	}
	if got, want := len(reg.Registered()), len(bridge.Tools()); got != want {
		return fmt.Errorf("tool registry incomplete: %d of %d tools bound", got, want)
	}
	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(
	ctx context.Context,
	mcpSrv *mcpserver.MCPServer,
	sc *server.ServerContext,
	provider *instrumentation.Provider,
	cfg serveConfig,
	logger *slog.Logger,
) error {
	var metricsServer *server.MetricsServer
	if cfg.MetricsEnabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	sessionManager := server.NewSessionIDManagerWithLogger(cfg.SessionTimeout, logger)
	defer sessionManager.Stop()

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(reqCtx context.Context, r *http.Request) context.Context {
			sessionID, err := sessionManager.ResolveSessionID(r)
			if err != nil {
				// Requests without a bearer token share the anonymous
				// session, which holds no credential and interrupts on
				// first use.
				return reqCtx
			}
			return server.WithSessionID(reqCtx, sessionID)
		}),
	)

	healthChecker := server.NewHealthChecker(sc)
	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	healthChecker.RegisterHealthEndpoints(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting streamable HTTP server",
		"addr", cfg.HTTPAddr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", "/healthz,/readyz")

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server stopped")
	return nil
}
