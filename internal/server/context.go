package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/oauth2"

	"github.com/assistkit/inboxbridge/internal/calendar"
	"github.com/assistkit/inboxbridge/internal/gmail"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/instrumentation"
	"github.com/assistkit/inboxbridge/internal/logging"
)

var errNoResolver = errors.New("credential resolver is required")

// cachedClient pairs a provider client with the access token it was built
// from. A refreshed token invalidates the cached client.
type cachedClient[T any] struct {
	accessToken string
	client      T
}

// ServerContext holds the shared dependencies of the MCP server: the
// credential resolver, per-session provider clients, instrumentation, and
// the response cache for read-only lookups.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	resolver *google.Resolver
	logger   *slog.Logger

	provider *instrumentation.Provider
	sink     *instrumentation.Sink
	cache    *ResponseCache

	gmailClients    map[string]cachedClient[*gmail.Client]
	calendarClients map[string]cachedClient[*calendar.Client]

	mu       sync.RWMutex
	shutdown bool
}

// ContextConfig configures a ServerContext. Resolver is required; the
// remaining fields fall back to sensible defaults.
type ContextConfig struct {
	Resolver *google.Resolver
	Logger   *slog.Logger
	Provider *instrumentation.Provider
	Sink     *instrumentation.Sink
	Cache    *ResponseCache
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, config ContextConfig) (*ServerContext, error) {
	if config.Resolver == nil {
		return nil, errNoResolver
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Cache == nil {
		config.Cache = NewResponseCache(DefaultCacheTTL, DefaultCacheEntries)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		resolver:        config.Resolver,
		logger:          config.Logger,
		provider:        config.Provider,
		sink:            config.Sink,
		cache:           config.Cache,
		gmailClients:    make(map[string]cachedClient[*gmail.Client]),
		calendarClients: make(map[string]cachedClient[*calendar.Client]),
	}, nil
}

// Context returns the server's base context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Resolver returns the credential resolver.
func (sc *ServerContext) Resolver() *google.Resolver {
	return sc.resolver
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil when instrumentation is not
// configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.provider == nil {
		return nil
	}
	return sc.provider.Metrics()
}

// Sink returns the observability sink, or nil when not configured.
func (sc *ServerContext) Sink() *instrumentation.Sink {
	return sc.sink
}

// Tracer returns a tracer for creating spans. A no-op tracer is returned when
// instrumentation is not configured, so callers never need a nil check.
func (sc *ServerContext) Tracer(name string) trace.Tracer {
	if sc.provider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return sc.provider.Tracer(name)
}

// providerRecorder builds the per-session recorder that turns completed
// Google API calls into metrics and sink records.
func (sc *ServerContext) providerRecorder(service, sessionID string) func(ctx context.Context, operation string, duration time.Duration, err error) {
	sessionHash := logging.AnonymizeSession(sessionID)
	return func(ctx context.Context, operation string, duration time.Duration, err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		if metrics := sc.Metrics(); metrics != nil {
			metrics.RecordProviderOperation(ctx, service, operation, status, duration)
		}
		if sc.sink != nil {
			record := instrumentation.NewProviderOperationRecord(sessionHash, service, operation, status, duration)
			if err != nil {
				record.Error = err.Error()
			}
			sc.sink.Emit(record)
		}
	}
}

// Cache returns the read-only response cache.
func (sc *ServerContext) Cache() *ResponseCache {
	return sc.cache
}

// GmailClientForSession returns a Gmail client bound to the session's
// current credential. The client is cached per session and rebuilt when the
// access token changes, so a refreshed credential is picked up
// transparently.
func (sc *ServerContext) GmailClientForSession(ctx context.Context, sessionID string, scope google.Scope) (*gmail.Client, error) {
	token, err := sc.resolver.Resolve(ctx, sessionID, scope)
	if err != nil {
		return nil, err
	}

	sc.mu.RLock()
	cached, ok := sc.gmailClients[sessionID]
	sc.mu.RUnlock()
	if ok && cached.accessToken == token.AccessToken {
		return cached.client, nil
	}

	client, err := gmail.NewClient(sc.ctx, token)
	if err != nil {
		return nil, err
	}
	client.SetRecorder(gmail.Recorder(sc.providerRecorder("gmail", sessionID)))

	sc.mu.Lock()
	sc.gmailClients[sessionID] = cachedClient[*gmail.Client]{
		accessToken: token.AccessToken,
		client:      client,
	}
	sc.mu.Unlock()
	return client, nil
}

// CalendarClientForSession returns a Calendar client bound to the session's
// current credential, cached the same way as Gmail clients.
func (sc *ServerContext) CalendarClientForSession(ctx context.Context, sessionID string, scope google.Scope) (*calendar.Client, error) {
	token, err := sc.resolver.Resolve(ctx, sessionID, scope)
	if err != nil {
		return nil, err
	}

	sc.mu.RLock()
	cached, ok := sc.calendarClients[sessionID]
	sc.mu.RUnlock()
	if ok && cached.accessToken == token.AccessToken {
		return cached.client, nil
	}

	client, err := calendar.NewClient(sc.ctx, token)
	if err != nil {
		return nil, err
	}
	client.SetRecorder(calendar.Recorder(sc.providerRecorder("calendar", sessionID)))

	sc.mu.Lock()
	sc.calendarClients[sessionID] = cachedClient[*calendar.Client]{
		accessToken: token.AccessToken,
		client:      client,
	}
	sc.mu.Unlock()
	return client, nil
}

// SetGmailClientForSession overrides the cached Gmail client for a session.
// Used by tests to inject fakes.
func (sc *ServerContext) SetGmailClientForSession(sessionID string, token *oauth2.Token, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[sessionID] = cachedClient[*gmail.Client]{
		accessToken: token.AccessToken,
		client:      client,
	}
}

// DropSession removes the cached clients for a session.
func (sc *ServerContext) DropSession(sessionID string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.gmailClients, sessionID)
	delete(sc.calendarClients, sessionID)
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drains the observability sink.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.mu.Unlock()

	sc.cancel()
	if sc.sink != nil {
		sc.sink.Close()
	}
	return nil
}
