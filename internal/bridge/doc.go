// Package bridge defines the shared contract between the MCP tool layer and
// the Google provider clients: the closed set of tool names, the two-outcome
// tool result (payload or authorization interruption), and the error taxonomy
// that provider failures are normalized into.
package bridge
