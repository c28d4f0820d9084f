package google

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/giantswarm/mcp-oauth/storage"
	"golang.org/x/oauth2"
)

// TokenStore holds one Google OAuth token per session. Tokens are replaced
// wholesale on refresh, never partially updated.
type TokenStore interface {
	// GetToken retrieves the token for a session. Returns an error if the
	// session has never linked a Google account.
	GetToken(ctx context.Context, sessionID string) (*oauth2.Token, error)

	// SaveToken stores or replaces the token for a session.
	SaveToken(ctx context.Context, sessionID string, token *oauth2.Token) error

	// HasToken reports whether a token exists for the session.
	HasToken(sessionID string) bool
}

// MemoryTokenStore is the in-process TokenStore used for the stdio transport
// and in tests. Expired entries without a refresh token are swept
// periodically.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*oauth2.Token
	logger *slog.Logger
}

// NewMemoryTokenStore creates an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{
		tokens: make(map[string]*oauth2.Token),
		logger: slog.Default(),
	}
}

// SetLogger sets a custom logger for the store.
func (s *MemoryTokenStore) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// GetToken retrieves the token for a session.
func (s *MemoryTokenStore) GetToken(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[sessionID]
	if !ok {
		return nil, fmt.Errorf("no Google token for session %q", sessionID)
	}
	return token, nil
}

// SaveToken stores or replaces the token for a session.
func (s *MemoryTokenStore) SaveToken(ctx context.Context, sessionID string, token *oauth2.Token) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
	s.logger.Debug("saved Google token", "session", sessionID, "expiry", token.Expiry)
	return nil
}

// HasToken reports whether a token exists for the session.
func (s *MemoryTokenStore) HasToken(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[sessionID]
	return ok
}

// DeleteToken removes a session's token, e.g. on logout.
func (s *MemoryTokenStore) DeleteToken(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
}

// Sweep removes tokens that expired more than grace ago and carry no refresh
// token; those sessions must re-authorize anyway.
func (s *MemoryTokenStore) Sweep(grace time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-grace)
	removed := 0
	for id, t := range s.tokens {
		if t.RefreshToken == "" && !t.Expiry.IsZero() && t.Expiry.Before(cutoff) {
			delete(s.tokens, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("swept expired tokens", "removed", removed)
	}
	return removed
}

// StorageTokenStore adapts the mcp-oauth library's TokenStore to the bridge
// TokenStore interface. Used with the streamable-http transport where the
// OAuth handler owns token persistence (memory or valkey backed).
type StorageTokenStore struct {
	store storage.TokenStore
}

// NewStorageTokenStore wraps an mcp-oauth token store.
func NewStorageTokenStore(store storage.TokenStore) *StorageTokenStore {
	return &StorageTokenStore{store: store}
}

// GetToken retrieves the token for a session from the backing store.
func (s *StorageTokenStore) GetToken(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	return s.store.GetToken(ctx, sessionID)
}

// SaveToken stores the token for a session in the backing store.
func (s *StorageTokenStore) SaveToken(ctx context.Context, sessionID string, token *oauth2.Token) error {
	return s.store.SaveToken(ctx, sessionID, token)
}

// HasToken reports whether the backing store holds a token for the session.
func (s *StorageTokenStore) HasToken(sessionID string) bool {
	_, err := s.store.GetToken(context.Background(), sessionID)
	return err == nil
}
