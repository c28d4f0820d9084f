package instrumentation

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer makes a bytes.Buffer safe for the sink's consumer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSink_DeliversRecords(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	sink := NewSink(logger, nil, 8)

	record := NewToolInvocationRecord("abc123", "list_emails", StatusSuccess, 42*time.Millisecond)
	record.ResultSummary = "ok (120 chars)"
	sink.Emit(record)
	sink.Close()

	logged := out.String()
	assert.Contains(t, logged, "observability record")
	assert.Contains(t, logged, "tool=list_emails")
	assert.Contains(t, logged, "status=success")
	assert.Contains(t, logged, "session_hash=abc123")
	assert.Contains(t, logged, "ok (120 chars)")
}

func TestSink_CloseDrainsQueue(t *testing.T) {
	out := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(out, nil))
	sink := NewSink(logger, nil, 64)

	for i := 0; i < 20; i++ {
		sink.Emit(NewToolInvocationRecord("h", "get_email", StatusSuccess, time.Millisecond))
	}
	sink.Close()

	assert.Equal(t, 20, strings.Count(out.String(), "observability record"))
}

func TestSink_EmitNeverBlocks(t *testing.T) {
	// A full queue drops records instead of stalling the caller.
	logger := slog.New(slog.NewTextHandler(&syncBuffer{}, nil))
	sink := NewSink(logger, nil, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			sink.Emit(NewProviderOperationRecord("h", "gmail", "gmail.list", StatusSuccess, time.Millisecond))
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Emit blocked on a full queue")
	}
	sink.Close()
}

func TestSink_CloseIdempotent(t *testing.T) {
	sink := NewSink(slog.New(slog.NewTextHandler(&syncBuffer{}, nil)), nil, 4)
	sink.Close()
	sink.Close()

	// Emitting after close is a no-op, not a panic.
	sink.Emit(NewToolInvocationRecord("h", "list_emails", StatusError, time.Millisecond))
}

func TestNewToolInvocationRecord(t *testing.T) {
	record := NewToolInvocationRecord("hash", "send_email", StatusAuthRequired, 1500*time.Microsecond)

	require.NotEmpty(t, record.ID)
	assert.Equal(t, KindToolInvocation, record.Kind)
	assert.Equal(t, "hash", record.SessionHash)
	assert.Equal(t, "send_email", record.Tool)
	assert.Equal(t, StatusAuthRequired, record.Status)
	assert.InDelta(t, 1.5, record.DurationMS, 0.001)
	assert.False(t, record.Timestamp.IsZero())

	other := NewToolInvocationRecord("hash", "send_email", StatusAuthRequired, time.Millisecond)
	assert.NotEqual(t, record.ID, other.ID, "record ids are unique")
}

func TestNewProviderOperationRecord(t *testing.T) {
	record := NewProviderOperationRecord("hash", "calendar", "calendar.freebusy", StatusSuccess, 20*time.Millisecond)

	assert.Equal(t, KindProviderOperation, record.Kind)
	assert.Equal(t, "calendar", record.Service)
	assert.Equal(t, "calendar.freebusy", record.Operation)
	assert.Empty(t, record.Tool)
}

func TestMetrics_ZeroValueIsNoOp(t *testing.T) {
	// An unconfigured Metrics value must be safe to call from any path.
	var m Metrics
	ctx := t.Context()
	m.RecordToolInvocation(ctx, "list_emails", StatusSuccess, time.Millisecond)
	m.RecordProviderOperation(ctx, "gmail", "gmail.list", StatusSuccess, time.Millisecond)
	m.RecordTokenRefresh(ctx, StatusError)
	m.RecordSinkDrop(ctx, string(KindToolInvocation))
}

func TestSink_DeliversArguments(t *testing.T) {
	out := &syncBuffer{}
	sink := NewSink(slog.New(slog.NewTextHandler(out, nil)), nil, 8)

	record := NewToolInvocationRecord("abc123", "search_emails", StatusSuccess, time.Millisecond)
	record.Arguments = `{"max_results":5,"query":"from:ana@example.com"}`
	sink.Emit(record)
	sink.Close()

	logged := out.String()
	assert.Contains(t, logged, "arguments=")
	assert.Contains(t, logged, "from:ana@example.com")
}

func TestSummarizeArguments(t *testing.T) {
	assert.Empty(t, SummarizeArguments(nil))
	assert.Empty(t, SummarizeArguments(map[string]interface{}{}))

	// Keys come out in stable order regardless of insertion.
	got := SummarizeArguments(map[string]interface{}{
		"query":       "from:ana@example.com",
		"max_results": float64(5),
	})
	assert.Equal(t, `{"max_results":5,"query":"from:ana@example.com"}`, got)
}

func TestSummarizeArguments_Truncates(t *testing.T) {
	long := strings.Repeat("x", 2000)
	got := SummarizeArguments(map[string]interface{}{"body": long})

	assert.LessOrEqual(t, len([]rune(got)), maxArgumentsLen+1)
	assert.True(t, strings.HasSuffix(got, "…"), "truncated summary ends with an ellipsis")
	assert.NotContains(t, got, long, "full bodies never reach the sink")
}
