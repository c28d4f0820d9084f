package instrumentation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RecordKind discriminates the record types flowing through the sink.
type RecordKind string

const (
	KindToolInvocation    RecordKind = "tool_invocation"
	KindProviderOperation RecordKind = "provider_operation"
)

// Record is a single observability event. Records are emitted to the sink
// after the associated work completes and must never carry raw credentials
// or unsanitized message bodies.
type Record struct {
	ID        string     `json:"id"`
	Kind      RecordKind `json:"kind"`
	Timestamp time.Time  `json:"timestamp"`

	// SessionHash is the anonymized session identifier, never the raw
	// session token.
	SessionHash string `json:"session_hash"`

	Tool      string `json:"tool,omitempty"`
	Service   string `json:"service,omitempty"`
	Operation string `json:"operation,omitempty"`

	// Arguments is a bounded rendering of the call arguments, produced by
	// SummarizeArguments. Only set for tool invocations.
	Arguments string `json:"arguments,omitempty"`

	Status     string        `json:"status"`
	Duration   time.Duration `json:"duration"`
	DurationMS float64       `json:"duration_ms"`

	// ResultSummary is a short description of the outcome, truncated by
	// the caller. Empty for failed invocations.
	ResultSummary string `json:"result_summary,omitempty"`
	Error         string `json:"error,omitempty"`

	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}

// NewToolInvocationRecord builds a record for one completed tool call.
func NewToolInvocationRecord(sessionHash, tool, status string, duration time.Duration) Record {
	return Record{
		ID:          uuid.NewString(),
		Kind:        KindToolInvocation,
		Timestamp:   time.Now().UTC(),
		SessionHash: sessionHash,
		Tool:        tool,
		Status:      status,
		Duration:    duration,
		DurationMS:  float64(duration.Microseconds()) / 1000.0,
	}
}

// maxArgumentsLen bounds the argument summary carried in a record.
const maxArgumentsLen = 256

// SummarizeArguments renders tool-call arguments as compact JSON with keys in
// stable order, truncated so long message bodies never reach the sink whole.
func SummarizeArguments(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}
	data, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	runes := []rune(string(data))
	if len(runes) > maxArgumentsLen {
		return string(runes[:maxArgumentsLen]) + "…"
	}
	return string(data)
}

// NewProviderOperationRecord builds a record for one Google API call.
func NewProviderOperationRecord(sessionHash, service, operation, status string, duration time.Duration) Record {
	return Record{
		ID:          uuid.NewString(),
		Kind:        KindProviderOperation,
		Timestamp:   time.Now().UTC(),
		SessionHash: sessionHash,
		Service:     service,
		Operation:   operation,
		Status:      status,
		Duration:    duration,
		DurationMS:  float64(duration.Microseconds()) / 1000.0,
	}
}
