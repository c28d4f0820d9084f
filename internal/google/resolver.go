package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/instrumentation"
	"github.com/assistkit/inboxbridge/internal/logging"
)

// Resolver failure modes. Both collapse to an authorization-required
// interruption at the tool layer: the remedy for a failed refresh is the
// same as for a missing link, re-authorize.
var (
	ErrNoLinkedAccount   = errors.New("session has no linked Google account")
	ErrRefreshFailed     = errors.New("Google token refresh failed")
	ErrInsufficientScope = errors.New("linked Google account lacks the required scope")
)

// IsAuthError reports whether err means the session must (re-)authorize.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoLinkedAccount) ||
		errors.Is(err, ErrRefreshFailed) ||
		errors.Is(err, ErrInsufficientScope) ||
		bridge.IsUnauthorized(err)
}

// Resolver turns a session id plus a required scope into a valid access
// token, refreshing through the identity provider when the cached token is
// expired. Refreshes for the same session are single-flighted so concurrent
// tool calls never race to double-refresh.
type Resolver struct {
	store   TokenStore
	conf    *oauth2.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	group          singleflight.Group
	expiryMargin   time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithExpiryMargin sets the safety margin before expiry at which a token is
// treated as expired (default 5 minutes).
func WithExpiryMargin(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.expiryMargin = d }
}

// WithRefreshTimeout bounds a single identity-provider refresh (default 15s).
func WithRefreshTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.refreshTimeout = d }
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records refresh outcomes on the given instruments. A nil
// metrics value leaves refreshes unrecorded.
func WithMetrics(m *instrumentation.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// withClock overrides the time source in tests.
func withClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver over the given store and OAuth config.
func NewResolver(store TokenStore, conf *oauth2.Config, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:          store,
		conf:           conf,
		logger:         slog.Default(),
		expiryMargin:   5 * time.Minute,
		refreshTimeout: 15 * time.Second,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a valid token for the session scoped to required. A single
// resolution attempt is made per call; the caller decides whether a failure
// becomes an interruption.
func (r *Resolver) Resolve(ctx context.Context, sessionID string, required Scope) (*oauth2.Token, error) {
	token, err := r.store.GetToken(ctx, sessionID)
	if err != nil || token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("resolve %q: %w", sessionID, ErrNoLinkedAccount)
	}

	if granted := GrantedScopes(token); !Satisfies(granted, required) {
		r.logger.Debug("scope check failed",
			logging.Session(sessionID), "required", string(required))
		return nil, fmt.Errorf("resolve %q: need %s: %w", sessionID, required, ErrInsufficientScope)
	}

	if !r.expired(token) {
		return token, nil
	}

	refreshed, err, _ := r.group.Do(sessionID, func() (interface{}, error) {
		// Re-read under the flight: a concurrent caller may have finished
		// a refresh while this one queued.
		current, err := r.store.GetToken(ctx, sessionID)
		if err == nil && current != nil && !r.expired(current) {
			return current, nil
		}
		return r.refresh(ctx, sessionID, token)
	})
	if err != nil {
		return nil, err
	}

	newToken := refreshed.(*oauth2.Token)
	if granted := GrantedScopes(newToken); !Satisfies(granted, required) {
		return nil, fmt.Errorf("resolve %q: need %s: %w", sessionID, required, ErrInsufficientScope)
	}
	return newToken, nil
}

func (r *Resolver) expired(token *oauth2.Token) bool {
	if token.Expiry.IsZero() {
		return false
	}
	return !token.Expiry.After(r.now().Add(r.expiryMargin))
}

// refresh performs exactly one identity-provider refresh with a bounded
// timeout and replaces the stored token wholesale.
func (r *Resolver) refresh(ctx context.Context, sessionID string, token *oauth2.Token) (*oauth2.Token, error) {
	if token.RefreshToken == "" {
		r.recordRefresh(ctx, instrumentation.StatusError)
		r.logger.Warn("token expired with no refresh token", logging.Session(sessionID))
		return nil, fmt.Errorf("refresh %q: no refresh token: %w", sessionID, ErrRefreshFailed)
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.refreshTimeout)
	defer cancel()

	newToken, err := r.conf.TokenSource(refreshCtx, token).Token()
	if err != nil {
		r.recordRefresh(ctx, instrumentation.StatusError)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, bridge.NewError(bridge.KindUnavailable, "oauth.refresh",
				"token refresh timed out; please try again later")
		}
		r.logger.Warn("token refresh rejected", logging.Session(sessionID), logging.Err(err))
		return nil, fmt.Errorf("refresh %q: %v: %w", sessionID, err, ErrRefreshFailed)
	}

	// Refresh responses omit granted scopes; carry the original grant
	// forward so the scope invariant keeps holding.
	if GrantedScopes(newToken) == "" {
		if granted := GrantedScopes(token); granted != "" {
			newToken = newToken.WithExtra(map[string]interface{}{"scope": granted})
		}
	}

	if err := r.store.SaveToken(ctx, sessionID, newToken); err != nil {
		// The refreshed token is still valid for this call even if saving
		// it failed.
		r.logger.Warn("failed to save refreshed token", logging.Session(sessionID), logging.Err(err))
	}
	r.recordRefresh(ctx, instrumentation.StatusSuccess)
	r.logger.Info("refreshed Google token", logging.Session(sessionID), "expiry", newToken.Expiry)
	return newToken, nil
}

func (r *Resolver) recordRefresh(ctx context.Context, status string) {
	if r.metrics != nil {
		r.metrics.RecordTokenRefresh(ctx, status)
	}
}
