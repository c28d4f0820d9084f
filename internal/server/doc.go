// Package server provides the MCP server context, session management, and
// supporting HTTP surfaces (metrics, health) for the inboxbridge
// application.
//
// # Key Components
//
// ServerContext manages per-session Google API clients with lazy
// initialization and caching. Clients are built from credentials resolved
// through the google package and rebuilt transparently when a session's
// token is refreshed.
//
// SessionIDManager derives stable session identifiers from request bearer
// tokens. Tokens are hashed before use, so multiple users can share a
// single MCP server instance without the server retaining raw credentials.
//
// ResponseCache is a short-TTL cache for read-only tool responses, flushed
// whenever a side-effecting tool runs.
//
// MetricsServer serves Prometheus metrics on a dedicated port, and
// HealthChecker exposes liveness and readiness probes for Kubernetes
// deployments.
package server
