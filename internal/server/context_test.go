package server

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/assistkit/inboxbridge/internal/gmail"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/instrumentation"
	"github.com/assistkit/inboxbridge/internal/logging"
)

func newTestContext(t *testing.T, store google.TokenStore) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), ContextConfig{
		Resolver: google.NewResolver(store, &oauth2.Config{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_RequiresResolver(t *testing.T) {
	_, err := NewServerContext(context.Background(), ContextConfig{})
	assert.Error(t, err)
}

func TestNewServerContext_Defaults(t *testing.T) {
	sc := newTestContext(t, google.NewMemoryTokenStore())
	assert.NotNil(t, sc.Logger())
	assert.NotNil(t, sc.Cache())
	assert.Nil(t, sc.Metrics(), "no provider means no metrics")
	assert.Nil(t, sc.Sink())
}

func TestGmailClientForSession_AuthFailure(t *testing.T) {
	sc := newTestContext(t, google.NewMemoryTokenStore())

	_, err := sc.GmailClientForSession(context.Background(), "unlinked", google.ScopeGmailReadonly)
	require.Error(t, err)
	assert.True(t, google.IsAuthError(err))

	_, err = sc.CalendarClientForSession(context.Background(), "unlinked", google.ScopeCalendar)
	require.Error(t, err)
	assert.True(t, google.IsAuthError(err))
}

func TestGmailClientForSession_CachedPerToken(t *testing.T) {
	store := google.NewMemoryTokenStore()
	token := &oauth2.Token{AccessToken: "at-1"}
	require.NoError(t, store.SaveToken(context.Background(), "s1", token))

	sc := newTestContext(t, store)

	injected := &gmail.Client{}
	sc.SetGmailClientForSession("s1", token, injected)

	got, err := sc.GmailClientForSession(context.Background(), "s1", google.ScopeGmailReadonly)
	require.NoError(t, err)
	assert.Same(t, injected, got, "cached client reused while the token is unchanged")

	// A replaced token invalidates the cached client.
	require.NoError(t, store.SaveToken(context.Background(), "s1", &oauth2.Token{AccessToken: "at-2"}))
	got, err = sc.GmailClientForSession(context.Background(), "s1", google.ScopeGmailReadonly)
	require.NoError(t, err)
	assert.NotSame(t, injected, got)
}

func TestDropSession(t *testing.T) {
	store := google.NewMemoryTokenStore()
	token := &oauth2.Token{AccessToken: "at-1"}
	require.NoError(t, store.SaveToken(context.Background(), "s1", token))

	sc := newTestContext(t, store)
	injected := &gmail.Client{}
	sc.SetGmailClientForSession("s1", token, injected)

	sc.DropSession("s1")
	got, err := sc.GmailClientForSession(context.Background(), "s1", google.ScopeGmailReadonly)
	require.NoError(t, err)
	assert.NotSame(t, injected, got, "dropped session rebuilds its client")
}

func TestShutdown(t *testing.T) {
	sc := newTestContext(t, google.NewMemoryTokenStore())
	require.False(t, sc.IsShutdown())

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())

	select {
	case <-sc.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not cancel the server context")
	}

	// Idempotent.
	assert.NoError(t, sc.Shutdown())
}

func TestServerContext_TracerWithoutProvider(t *testing.T) {
	sc := newTestContext(t, google.NewMemoryTokenStore())

	tracer := sc.Tracer("test")
	require.NotNil(t, tracer)

	// Without instrumentation the tracer is a no-op; spans carry no ids.
	_, span := tracer.Start(context.Background(), "op")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
}

func TestProviderRecorder_EmitsSinkRecord(t *testing.T) {
	buf := &recorderLogBuffer{}
	sink := instrumentation.NewSink(slog.New(slog.NewTextHandler(buf, nil)), nil, 8)

	resolver := google.NewResolver(google.NewMemoryTokenStore(), &oauth2.Config{})
	sc, err := NewServerContext(context.Background(), ContextConfig{
		Resolver: resolver,
		Sink:     sink,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	record := sc.providerRecorder("gmail", "session-1")
	record(context.Background(), "gmail.list", 12*time.Millisecond, nil)
	record(context.Background(), "gmail.send", time.Millisecond, errors.New("quota exhausted"))
	sink.Close()

	logged := buf.String()
	assert.Equal(t, 2, strings.Count(logged, "observability record"))
	assert.Contains(t, logged, "service=gmail")
	assert.Contains(t, logged, "operation=gmail.list")
	assert.Contains(t, logged, "status="+instrumentation.StatusError)
	assert.Contains(t, logged, "quota exhausted")
	assert.Contains(t, logged, logging.AnonymizeSession("session-1"))
	assert.NotContains(t, logged, "session_hash=session-1", "raw session ids never reach records")
}

type recorderLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *recorderLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *recorderLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
