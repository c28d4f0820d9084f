package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/assistkit/inboxbridge/internal/google"
)

func probe(t *testing.T, handler http.Handler) (int, healthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	var status healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return rec.Code, status
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	code, status := probe(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthOK, status.Status)

	// Liveness stays ok even when not ready; only readiness gates traffic.
	h.SetReady(false)
	code, _ = probe(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc, err := NewServerContext(context.Background(), ContextConfig{
		Resolver: google.NewResolver(google.NewMemoryTokenStore(), &oauth2.Config{}),
	})
	require.NoError(t, err)

	h := NewHealthChecker(sc)
	require.True(t, h.IsReady())

	code, status := probe(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthOK, status.Checks["ready"])

	h.SetReady(false)
	code, status = probe(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthNotReady, status.Checks["ready"])

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	code, status = probe(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthShuttingDown, status.Checks["shutdown"])
}

func TestHealthChecker_Detailed(t *testing.T) {
	sc, err := NewServerContext(context.Background(), ContextConfig{
		Resolver: google.NewResolver(google.NewMemoryTokenStore(), &oauth2.Config{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	h := NewHealthChecker(sc)
	code, status := probe(t, h.DetailedHealthHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, status.Uptime)
	assert.Equal(t, healthOK, status.Checks["response_cache"])
}

func TestRegisterHealthEndpoints(t *testing.T) {
	h := NewHealthChecker(nil)
	mux := http.NewServeMux()
	h.RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
