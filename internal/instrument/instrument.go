package instrument

import (
	"context"
	"time"
)

// Event is one finished span or business event, persisted to _events.
type Event struct {
	ID         string
	TraceID    string
	SpanID     string
	Component  string
	Action     string
	FormID     string
	RecordID   string
	UserID     string
	DurationMs float64
	Status     string
	Metadata   map[string]any
	CreatedAt  time.Time
}

// Span records one timed unit of work.
type Span interface {
	End()
	SetStatus(status string)
	SetMetadata(key string, value any)
	SetForm(formID, recordID string)
	TraceID() string
	SpanID() string
}

// Instrumenter creates spans and emits business events.
type Instrumenter interface {
	StartSpan(ctx context.Context, component, action string) (context.Context, Span)
	EmitBusinessEvent(ctx context.Context, action, formID, recordID string, metadata map[string]any)
}

type traceKey struct{}

// traceFromContext returns the active trace id, or "".
func traceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}

func contextWithTrace(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}
