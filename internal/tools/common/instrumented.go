package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/assistkit/inboxbridge/internal/bridge"
	"github.com/assistkit/inboxbridge/internal/google"
	"github.com/assistkit/inboxbridge/internal/instrumentation"
	"github.com/assistkit/inboxbridge/internal/logging"
	"github.com/assistkit/inboxbridge/internal/server"
)

// MCPHandler is the handler signature expected by the MCP server.
type MCPHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler adapts one registry tool to the MCP protocol and
// wraps it with caching, metrics, audit records, tracing, and structured
// logging. Every call dispatches through the registry, so only names in the
// closed tool enumeration with a bound handler can ever execute.
//
// Credential failures never surface as protocol errors: they become an
// interruption payload telling the conversational layer to run the account
// linking flow. Domain errors are returned as MCP tool errors with the
// error kind visible to the caller.
//
// Usage:
//
//	reg.Register(bridge.ToolListEmails, handler)
//	s.AddTool(myTool, common.InstrumentedToolHandler(bridge.ToolListEmails, sc, reg))
func InstrumentedToolHandler(
	name bridge.Name,
	sc *server.ServerContext,
	registry *bridge.Registry,
) MCPHandler {
	tracer := sc.Tracer("inboxbridge/tools")
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID := SessionFromContext(ctx)
		sessionHash := logging.AnonymizeSession(sessionID)
		args := request.GetArguments()
		logger := sc.Logger().With(logging.Tool(string(name)), logging.Session(sessionID))

		ctx, span := tracer.Start(ctx, "tool."+string(name))
		defer span.End()

		// Read-only tools may be served from the short-TTL cache. Hits are
		// still visible to metrics and the sink.
		cacheable := !name.SideEffecting()
		var cacheKey string
		if cacheable && sc.Cache() != nil {
			cacheKey = server.CacheKey(sessionID, string(name), args)
			if payload, ok := sc.Cache().Get(cacheKey); ok {
				recordInvocation(ctx, sc, span, sessionHash, name, args,
					instrumentation.StatusCached, 0, "served from cache")
				return mcp.NewToolResultText(payload), nil
			}
		}

		start := time.Now()
		result, err := registry.Dispatch(ctx, string(name), sessionID, args)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		summary := ""
		var mcpResult *mcp.CallToolResult
		switch {
		case err != nil && google.IsAuthError(err):
			status = instrumentation.StatusAuthRequired
			mcpResult = bridge.Interrupted(interruptionFor(err)).MCP()
		case err != nil:
			status = instrumentation.StatusError
			logger.Error("tool invocation failed",
				logging.Status(logging.StatusError),
				logging.Err(err),
				logging.Duration(duration))
			mcpResult = mcp.NewToolResultError(errorText(err))
		case result.IsInterruption():
			status = instrumentation.StatusAuthRequired
			mcpResult = result.MCP()
		default:
			summary = result.Summary()
			if cacheable && sc.Cache() != nil {
				sc.Cache().Set(cacheKey, result.Payload)
			}
			if name.SideEffecting() && sc.Cache() != nil {
				sc.Cache().Flush()
			}
			mcpResult = result.MCP()
		}

		recordInvocation(ctx, sc, span, sessionHash, name, args, status, duration, summary)
		return mcpResult, nil
	}
}

// recordInvocation emits the metric and sink record for one tool call
// outcome, cache hits included.
func recordInvocation(
	ctx context.Context,
	sc *server.ServerContext,
	span trace.Span,
	sessionHash string,
	name bridge.Name,
	args map[string]interface{},
	status string,
	duration time.Duration,
	summary string,
) {
	if metrics := sc.Metrics(); metrics != nil {
		metrics.RecordToolInvocation(ctx, string(name), status, duration)
	}
	if sink := sc.Sink(); sink != nil {
		record := instrumentation.NewToolInvocationRecord(sessionHash, string(name), status, duration)
		record.Arguments = instrumentation.SummarizeArguments(args)
		record.ResultSummary = summary
		if sctx := span.SpanContext(); sctx.IsValid() {
			record.TraceID = sctx.TraceID().String()
			record.SpanID = sctx.SpanID().String()
		}
		sink.Emit(record)
	}
}

// interruptionFor builds the auth interruption for a credential failure.
// The message tells the user what happened; the action tells the agent
// what to do about it.
func interruptionFor(err error) *bridge.Interruption {
	switch {
	case errors.Is(err, google.ErrInsufficientScope):
		return bridge.AuthRequired("Your Google account is connected, but this action needs additional permissions. Please reconnect your account to grant them.")
	case errors.Is(err, google.ErrRefreshFailed):
		return bridge.AuthRequired("Your Google account connection has expired. Please reconnect your account to continue.")
	default:
		return bridge.AuthRequired("No Google account is connected. Please connect your Google account to use this feature.")
	}
}

// errorText renders a domain error for the MCP error result.
func errorText(err error) string {
	var bridgeErr *bridge.Error
	if errors.As(err, &bridgeErr) {
		return string(bridgeErr.Kind) + ": " + bridgeErr.Message
	}
	return err.Error()
}
