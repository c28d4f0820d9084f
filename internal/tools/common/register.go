package common

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/server"
)

// AddTool binds a handler into the dispatch registry and exposes the tool on
// the MCP server through the instrumented wrapper. Registration fails for
// names outside the closed tool enumeration and for duplicate bindings.
func AddTool(
	s *mcpserver.MCPServer,
	reg *bridge.Registry,
	sc *server.ServerContext,
	tool mcp.Tool,
	name bridge.Name,
	h bridge.Handler,
) error {
	if err := reg.Register(name, h); err != nil {
		return err
	}
	s.AddTool(tool, mcpserver.ToolHandlerFunc(InstrumentedToolHandler(name, sc, reg)))
	return nil
}
