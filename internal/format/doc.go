// Package format renders provider records into the compact strings the agent
// consumes. Formatting never fails: missing fields render as placeholders and
// long bodies are truncated to a fixed character budget.
package format
