package common

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/assistkit/inboxbridge/internal/server"
)

// SessionFromContext extracts the session ID for the current request.
// The HTTP transport stamps a bearer-token-derived session onto the
// context; otherwise the MCP client session is used, and the stdio
// transport falls back to its single implicit session.
func SessionFromContext(ctx context.Context) string {
	if sessionID, ok := server.SessionIDFromContext(ctx); ok {
		return sessionID
	}
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil && session.SessionID() != "" {
		return session.SessionID()
	}
	return server.StdioSessionID
}
