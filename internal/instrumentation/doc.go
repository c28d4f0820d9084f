// Package instrumentation provides the observability side of the bridge:
// OpenTelemetry metrics and tracing, structured audit records for tool
// invocations, and an asynchronous best-effort sink that keeps record
// delivery off the tool-call critical path.
package instrumentation
