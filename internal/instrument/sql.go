package instrument

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aeroform-backend/internal/store"
)

// SQLInstrumenter writes spans and business events to the _events table
// through a buffered batch writer.
type SQLInstrumenter struct {
	buffer *EventBuffer
}

func NewSQLInstrumenter(s *store.Store, bufferSize, flushIntervalMs int) *SQLInstrumenter {
	return &SQLInstrumenter{
		buffer: NewEventBuffer(s, bufferSize, flushIntervalMs),
	}
}

// Stop drains the underlying buffer.
func (si *SQLInstrumenter) Stop() {
	si.buffer.Stop()
}

func (si *SQLInstrumenter) StartSpan(ctx context.Context, component, action string) (context.Context, Span) {
	traceID := traceFromContext(ctx)
	if traceID == "" {
		traceID = uuid.New().String()
		ctx = contextWithTrace(ctx, traceID)
	}
	return ctx, &sqlSpan{
		buffer:    si.buffer,
		traceID:   traceID,
		spanID:    uuid.New().String(),
		component: component,
		action:    action,
		started:   time.Now(),
	}
}

func (si *SQLInstrumenter) EmitBusinessEvent(ctx context.Context, action, formID, recordID string, metadata map[string]any) {
	si.buffer.Enqueue(Event{
		ID:        uuid.New().String(),
		TraceID:   traceFromContext(ctx),
		SpanID:    uuid.New().String(),
		Component: "business",
		Action:    action,
		FormID:    formID,
		RecordID:  recordID,
		Status:    "ok",
		Metadata:  metadata,
		CreatedAt: time.Now(),
	})
}

type sqlSpan struct {
	buffer    *EventBuffer
	traceID   string
	spanID    string
	component string
	action    string
	formID    string
	recordID  string
	status    string
	metadata  map[string]any
	started   time.Time
	ended     bool
}

func (s *sqlSpan) End() {
	if s.ended {
		return
	}
	s.ended = true
	status := s.status
	if status == "" {
		status = "ok"
	}
	s.buffer.Enqueue(Event{
		ID:         uuid.New().String(),
		TraceID:    s.traceID,
		SpanID:     s.spanID,
		Component:  s.component,
		Action:     s.action,
		FormID:     s.formID,
		RecordID:   s.recordID,
		DurationMs: float64(time.Since(s.started).Microseconds()) / 1000.0,
		Status:     status,
		Metadata:   s.metadata,
		CreatedAt:  time.Now(),
	})
}

func (s *sqlSpan) SetStatus(status string) { s.status = status }

func (s *sqlSpan) SetMetadata(key string, value any) {
	if s.metadata == nil {
		s.metadata = make(map[string]any)
	}
	s.metadata[key] = value
}

func (s *sqlSpan) SetForm(formID, recordID string) {
	s.formID = formID
	s.recordID = recordID
}

func (s *sqlSpan) TraceID() string { return s.traceID }
func (s *sqlSpan) SpanID() string  { return s.spanID }

var _ Instrumenter = (*SQLInstrumenter)(nil)
var _ Instrumenter = (*NoopInstrumenter)(nil)
