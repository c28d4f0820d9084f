// Package common provides shared helpers for tool implementations:
// session extraction, argument parsing, and the instrumented handler
// wrapper that maps bridge results and errors onto the MCP protocol.
package common
