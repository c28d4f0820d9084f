package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestMemoryTokenStore_RoundTrip(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	_, err := store.GetToken(ctx, "s1")
	require.Error(t, err, "empty store must not return a token")
	assert.False(t, store.HasToken("s1"))

	token := &oauth2.Token{AccessToken: "at-1", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, store.SaveToken(ctx, "s1", token))
	assert.True(t, store.HasToken("s1"))

	got, err := store.GetToken(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "at-1", got.AccessToken)

	// Refresh replaces the token wholesale.
	require.NoError(t, store.SaveToken(ctx, "s1", &oauth2.Token{AccessToken: "at-2"}))
	got, err = store.GetToken(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "at-2", got.AccessToken)

	store.DeleteToken("s1")
	assert.False(t, store.HasToken("s1"))
}

func TestMemoryTokenStore_SessionIsolation(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	require.NoError(t, store.SaveToken(ctx, "alice", &oauth2.Token{AccessToken: "a"}))
	require.NoError(t, store.SaveToken(ctx, "bob", &oauth2.Token{AccessToken: "b"}))

	got, err := store.GetToken(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)

	store.DeleteToken("alice")
	assert.True(t, store.HasToken("bob"), "deleting one session must not affect another")
}

func TestMemoryTokenStore_SaveValidation(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	assert.Error(t, store.SaveToken(ctx, "", &oauth2.Token{AccessToken: "x"}))
	assert.Error(t, store.SaveToken(ctx, "s1", nil))
}

func TestMemoryTokenStore_Sweep(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	// Expired with no refresh token: swept.
	require.NoError(t, store.SaveToken(ctx, "stale", &oauth2.Token{
		AccessToken: "x",
		Expiry:      time.Now().Add(-2 * time.Hour),
	}))
	// Expired but refreshable: kept.
	require.NoError(t, store.SaveToken(ctx, "refreshable", &oauth2.Token{
		AccessToken:  "y",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-2 * time.Hour),
	}))
	// No expiry: kept.
	require.NoError(t, store.SaveToken(ctx, "static", &oauth2.Token{AccessToken: "z"}))

	removed := store.Sweep(time.Hour)
	assert.Equal(t, 1, removed)
	assert.False(t, store.HasToken("stale"))
	assert.True(t, store.HasToken("refreshable"))
	assert.True(t, store.HasToken("static"))
}

func TestGrantedScopes(t *testing.T) {
	assert.Empty(t, GrantedScopes(nil))
	assert.Empty(t, GrantedScopes(&oauth2.Token{AccessToken: "x"}))

	token := (&oauth2.Token{AccessToken: "x"}).WithExtra(map[string]interface{}{
		"scope": string(ScopeGmailReadonly),
	})
	assert.Equal(t, string(ScopeGmailReadonly), GrantedScopes(token))
}
