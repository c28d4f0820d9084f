package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// InterruptionTypeGoogleAuth is the wire type for the authorization-required
// interruption the agent runtime must branch on.
const InterruptionTypeGoogleAuth = "google_auth_required"

// Interruption is a structured pause signal returned instead of a payload.
// It is not an error: the conversation resumes once the user re-authorizes
// out of band.
type Interruption struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Action  string `json:"action"`
}

// AuthRequired builds the Google authorization interruption with a
// human-readable prompt.
func AuthRequired(message string) *Interruption {
	return &Interruption{
		Type:    InterruptionTypeGoogleAuth,
		Message: message,
		Action:  "connect_google_account",
	}
}

// ToolResult is the two-outcome contract of every tool call: exactly one of
// Payload or Interruption is set.
type ToolResult struct {
	Payload      string
	Interruption *Interruption
}

// Success wraps a formatted payload string.
func Success(payload string) ToolResult {
	return ToolResult{Payload: payload}
}

// Interrupted wraps an interruption.
func Interrupted(i *Interruption) ToolResult {
	return ToolResult{Interruption: i}
}

// IsInterruption reports whether the result pauses the turn.
func (r ToolResult) IsInterruption() bool {
	return r.Interruption != nil
}

// Summary returns a short description of the result for observability
// records. Payloads are not included verbatim to keep records bounded.
func (r ToolResult) Summary() string {
	if r.Interruption != nil {
		return r.Interruption.Type
	}
	return fmt.Sprintf("ok (%d chars)", len(r.Payload))
}

// MCP converts the result into an MCP tool result. Interruptions are encoded
// as a JSON object so the agent runtime can branch on the type field; they
// are deliberately not flagged as errors.
func (r ToolResult) MCP() *mcp.CallToolResult {
	if r.Interruption != nil {
		data, err := json.Marshal(r.Interruption)
		if err != nil {
			// Marshalling a flat struct of strings cannot fail; keep the
			// contract anyway and fall back to the message text.
			return mcp.NewToolResultText(r.Interruption.Message)
		}
		return mcp.NewToolResultText(string(data))
	}
	return mcp.NewToolResultText(r.Payload)
}
