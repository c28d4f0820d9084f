package instrumentation

import (
	"context"
	"log/slog"
	"sync"
)

// Sink delivers observability records asynchronously. Emit never blocks the
// hot path: when the queue is full the record is dropped and counted.
type Sink struct {
	logger  *slog.Logger
	metrics *Metrics

	queue  chan Record
	done   chan struct{}
	closed chan struct{}
	once   sync.Once
}

// NewSink starts the sink's consumer goroutine. Records are written to the
// logger as structured events. A buffer of zero falls back to the default.
func NewSink(logger *slog.Logger, metrics *Metrics, buffer int) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		logger:  logger,
		metrics: metrics,
		queue:   make(chan Record, buffer),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Emit enqueues a record for delivery. It never blocks: if the queue is
// full or the sink is closed the record is dropped.
func (s *Sink) Emit(record Record) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.queue <- record:
	default:
		if s.metrics != nil {
			s.metrics.RecordSinkDrop(context.Background(), string(record.Kind))
		}
	}
}

func (s *Sink) run() {
	defer close(s.closed)
	for {
		select {
		case record := <-s.queue:
			s.deliver(record)
		case <-s.done:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case record := <-s.queue:
					s.deliver(record)
				default:
					return
				}
			}
		}
	}
}

func (s *Sink) deliver(record Record) {
	attrs := []any{
		slog.String("record_id", record.ID),
		slog.String("kind", string(record.Kind)),
		slog.Time("timestamp", record.Timestamp),
		slog.String("session_hash", record.SessionHash),
		slog.String("status", record.Status),
		slog.Float64("duration_ms", record.DurationMS),
	}
	if record.Tool != "" {
		attrs = append(attrs, slog.String("tool", record.Tool))
	}
	if record.Arguments != "" {
		attrs = append(attrs, slog.String("arguments", record.Arguments))
	}
	if record.Service != "" {
		attrs = append(attrs,
			slog.String("service", record.Service),
			slog.String("operation", record.Operation))
	}
	if record.ResultSummary != "" {
		attrs = append(attrs, slog.String("result_summary", record.ResultSummary))
	}
	if record.Error != "" {
		attrs = append(attrs, slog.String("error", record.Error))
	}
	if record.TraceID != "" {
		attrs = append(attrs,
			slog.String("trace_id", record.TraceID),
			slog.String("span_id", record.SpanID))
	}
	s.logger.Info("observability record", attrs...)
}

// Close stops the consumer after draining queued records. Safe to call more
// than once.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.done)
	})
	<-s.closed
}
