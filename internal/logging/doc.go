// Package logging centralizes structured logging patterns for the bridge:
// consistent slog attribute naming, session-id anonymization, and token
// sanitization so credentials and PII never reach log output.
package logging
