package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"aeroform-backend/internal/store"
)

// EventBuffer collects events in memory and periodically flushes them
// to the _events table in a batch insert.
type EventBuffer struct {
	mu      sync.Mutex
	events  []Event
	store   *store.Store
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
}

// NewEventBuffer creates a buffer that flushes on a timer or when full.
func NewEventBuffer(s *store.Store, maxSize int, flushIntervalMs int) *EventBuffer {
	eb := &EventBuffer{
		store:   s,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	eb.ticker = time.NewTicker(time.Duration(flushIntervalMs) * time.Millisecond)
	go eb.run()
	return eb
}

func (eb *EventBuffer) run() {
	for {
		select {
		case <-eb.done:
			return
		case <-eb.ticker.C:
			eb.Flush()
		}
	}
}

// Enqueue adds an event to the buffer. If the buffer is full, a flush
// is triggered asynchronously.
func (eb *EventBuffer) Enqueue(event Event) {
	eb.mu.Lock()
	eb.events = append(eb.events, event)
	shouldFlush := len(eb.events) >= eb.maxSize
	eb.mu.Unlock()
	if shouldFlush {
		go eb.Flush()
	}
}

// Flush writes all buffered events to the database in a single
// transaction.
func (eb *EventBuffer) Flush() {
	eb.mu.Lock()
	if len(eb.events) == 0 {
		eb.mu.Unlock()
		return
	}
	batch := eb.events
	eb.events = nil
	eb.mu.Unlock()

	ctx := context.Background()
	tx, err := eb.store.BeginTx(ctx)
	if err != nil {
		log.Printf("ERROR: event buffer begin tx: %v", err)
		return
	}
	defer tx.Rollback() //nolint:errcheck

	p := eb.store.Dialect.Placeholder
	var placeholders []string
	for i := 1; i <= 11; i++ {
		placeholders = append(placeholders, p(i))
	}
	insertSQL := fmt.Sprintf(`INSERT INTO _events
		(id, trace_id, span_id, component, action, form_id, record_id, user_id, duration_ms, status, metadata)
		VALUES (%s)`, strings.Join(placeholders, ", "))

	for _, ev := range batch {
		metaJSON, _ := json.Marshal(ev.Metadata)
		if _, err := tx.ExecContext(ctx, insertSQL,
			ev.ID, ev.TraceID, ev.SpanID, ev.Component, ev.Action,
			ev.FormID, ev.RecordID, ev.UserID, ev.DurationMs, ev.Status, string(metaJSON),
		); err != nil {
			log.Printf("ERROR: event buffer insert: %v", err)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("ERROR: event buffer commit: %v", err)
	}
}

// Stop flushes remaining events and stops the background timer.
func (eb *EventBuffer) Stop() {
	eb.ticker.Stop()
	close(eb.done)
	eb.Flush()
}
