// Package cmd implements the command-line interface for inboxbridge.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the email and calendar tools
//   - authorize: Run the Google OAuth flow and store a credential locally
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
