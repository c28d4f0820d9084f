package gmail_tools

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/server"
)

// countingStore records how often a token resolution reached the store.
type countingStore struct {
	google.TokenStore
	lookups atomic.Int64
}

func (s *countingStore) GetToken(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	s.lookups.Add(1)
	return s.TokenStore.GetToken(ctx, sessionID)
}

func emptyContext(t *testing.T) (*server.ServerContext, *countingStore) {
	t.Helper()
	store := &countingStore{TokenStore: google.NewMemoryTokenStore()}
	sc, err := server.NewServerContext(context.Background(), server.ContextConfig{
		Resolver: google.NewResolver(store, &oauth2.Config{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, store
}

func TestHandlers_InvalidArgumentsShortCircuit(t *testing.T) {
	sc, store := emptyContext(t)

	tests := []struct {
		name    string
		handler bridge.Handler
		args    map[string]interface{}
		wantMsg string
	}{
		{
			name:    "list_emails max_results too large",
			handler: handleListEmails(sc),
			args:    map[string]interface{}{"max_results": float64(500)},
			wantMsg: "max_results must be between 1 and 100",
		},
		{
			name:    "list_emails max_results not integer",
			handler: handleListEmails(sc),
			args:    map[string]interface{}{"max_results": float64(2.5)},
			wantMsg: "max_results must be an integer",
		},
		{
			name:    "get_email missing id",
			handler: handleGetEmail(sc),
			args:    map[string]interface{}{},
			wantMsg: "email_id is required",
		},
		{
			name:    "search_emails missing query",
			handler: handleSearchEmails(sc),
			args:    map[string]interface{}{"max_results": float64(5)},
			wantMsg: "query is required",
		},
		{
			name:    "draft_reply missing instructions",
			handler: handleDraftReply(sc),
			args:    map[string]interface{}{"email_id": "m-1"},
			wantMsg: "instructions is required",
		},
		{
			name:    "send_email missing recipient",
			handler: handleSendEmail(sc),
			args:    map[string]interface{}{"subject": "hi", "body": "text"},
			wantMsg: "to is required",
		},
		{
			name:    "send_email invalid recipient",
			handler: handleSendEmail(sc),
			args:    map[string]interface{}{"to": "not-an-address", "subject": "hi", "body": "text"},
			wantMsg: "not a valid email address",
		},
		{
			name:    "send_email missing body",
			handler: handleSendEmail(sc),
			args:    map[string]interface{}{"to": "ana@example.com", "subject": "hi"},
			wantMsg: "body is required",
		},
		{
			name:    "send_email no subject and no reply target",
			handler: handleSendEmail(sc),
			args:    map[string]interface{}{"to": "ana@example.com", "body": "text"},
			wantMsg: "subject is required unless replying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := store.lookups.Load()
			_, err := tt.handler(context.Background(), "s1", tt.args)
			require.Error(t, err)
			assert.Equal(t, bridge.KindInvalidArgument, bridge.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, before, store.lookups.Load(),
				"validation failures must not touch the credential store")
		})
	}
}

func TestHandlers_UnlinkedSession(t *testing.T) {
	sc, _ := emptyContext(t)

	handlers := map[string]struct {
		handler bridge.Handler
		args    map[string]interface{}
	}{
		"list_emails":   {handleListEmails(sc), map[string]interface{}{}},
		"get_email":     {handleGetEmail(sc), map[string]interface{}{"email_id": "m-1"}},
		"search_emails": {handleSearchEmails(sc), map[string]interface{}{"query": "from:ana"}},
		"draft_reply":   {handleDraftReply(sc), map[string]interface{}{"email_id": "m-1", "instructions": "accept"}},
		"send_email":    {handleSendEmail(sc), map[string]interface{}{"to": "ana@example.com", "subject": "hi", "body": "text"}},
	}

	for name, tc := range handlers {
		t.Run(name, func(t *testing.T) {
			_, err := tc.handler(context.Background(), "unlinked", tc.args)
			require.Error(t, err)
			assert.True(t, google.IsAuthError(err), "expected auth error, got %v", err)
		})
	}
}

func TestHandleSendEmail_InsufficientScope(t *testing.T) {
	// A read-only grant must be refused before the send is attempted.
	store := &countingStore{TokenStore: google.NewMemoryTokenStore()}
	token := (&oauth2.Token{AccessToken: "at"}).WithExtra(map[string]interface{}{
		"scope": string(google.ScopeGmailReadonly),
	})
	require.NoError(t, store.SaveToken(context.Background(), "s1", token))

	sc, err := server.NewServerContext(context.Background(), server.ContextConfig{
		Resolver: google.NewResolver(store, &oauth2.Config{}),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	_, err = handleSendEmail(sc)(context.Background(), "s1", map[string]interface{}{
		"to":      "ana@example.com",
		"subject": "hi",
		"body":    "text",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, google.ErrInsufficientScope)
}
