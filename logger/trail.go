package logger

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kitai/models"
)

// Sink persists log events, typically the logs table.
type Sink interface {
	SaveLogEvent(ctx context.Context, event models.LogEvent) error
}

// Trail collects the events of one invocation. Each event goes to the process
// logger, to the in-memory list returned to the caller, and to the sink.
// A Trail is safe for concurrent use.
type Trail struct {
	mu     sync.Mutex
	sink   Sink
	events []models.LogEvent

	requestID      string
	tool           string
	userID         string
	organizationID string

	now func() time.Time
}

// NewTrail starts a trail with a fresh request id. sink may be nil.
func NewTrail(sink Sink, tool string) *Trail {
	return &Trail{
		sink:      sink,
		requestID: uuid.NewString(),
		tool:      tool,
		now:       time.Now,
	}
}

// RequestID returns the correlation id shared by every event of the trail.
func (t *Trail) RequestID() string {
	return t.requestID
}

// SetIdentity attaches the resolved user and organization to subsequent events.
func (t *Trail) SetIdentity(userID, organizationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userID = userID
	t.organizationID = organizationID
}

// Events returns a copy of the recorded events in order.
func (t *Trail) Events() []models.LogEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.LogEvent, len(t.events))
	copy(out, t.events)
	return out
}

func (t *Trail) Debug(ctx context.Context, eventType, msg string, fields ...Field) {
	t.record(ctx, models.LevelDebug, eventType, msg, fields)
}

func (t *Trail) Info(ctx context.Context, eventType, msg string, fields ...Field) {
	t.record(ctx, models.LevelInfo, eventType, msg, fields)
}

func (t *Trail) Warn(ctx context.Context, eventType, msg string, fields ...Field) {
	t.record(ctx, models.LevelWarn, eventType, msg, fields)
}

func (t *Trail) Error(ctx context.Context, eventType, msg string, fields ...Field) {
	t.record(ctx, models.LevelError, eventType, msg, fields)
}

func (t *Trail) record(ctx context.Context, level, eventType, msg string, fields []Field) {
	e := &entry{event: models.LogEvent{
		ID:        uuid.NewString(),
		RequestID: t.requestID,
		EventType: eventType,
		Level:     level,
		Message:   msg,
		Tool:      t.tool,
	}}
	for _, f := range fields {
		f(e)
	}
	if len(e.meta) > 0 {
		if raw, err := json.Marshal(e.meta); err == nil {
			e.event.Metadata = raw
		}
	}

	t.mu.Lock()
	e.event.CreatedAt = t.now()
	e.event.UserID = t.userID
	e.event.OrganizationID = t.organizationID
	t.events = append(t.events, e.event)
	t.mu.Unlock()

	Logger.LogAttrs(ctx, ParseLevel(level), msg, attrs(e.event)...)

	if t.sink == nil {
		return
	}
	// a failing sink must never fail the request
	if err := t.sink.SaveLogEvent(context.WithoutCancel(ctx), e.event); err != nil {
		Logger.Warn("failed to persist log event", "request_id", t.requestID, "event_type", eventType, "error", err)
	}
}

func attrs(ev models.LogEvent) []slog.Attr {
	out := []slog.Attr{
		slog.String("request_id", ev.RequestID),
		slog.String("event_type", ev.EventType),
	}
	if ev.OrganizationID != "" {
		out = append(out, slog.String("organization_id", ev.OrganizationID))
	}
	if ev.Provider != "" {
		out = append(out, slog.String("provider", ev.Provider))
	}
	if ev.Model != "" {
		out = append(out, slog.String("model", ev.Model))
	}
	if ev.BatchIndex != nil {
		out = append(out, slog.Int("batch_index", *ev.BatchIndex))
	}
	if ev.ItemCount != nil {
		out = append(out, slog.Int("item_count", *ev.ItemCount))
	}
	if ev.DurationMs != nil {
		out = append(out, slog.Int64("duration_ms", *ev.DurationMs))
	}
	if ev.ErrorMessage != "" {
		out = append(out, slog.String("error", ev.ErrorMessage))
	}
	return out
}

type entry struct {
	event models.LogEvent
	meta  map[string]any
}

// Field sets one of the typed columns of an event.
type Field func(*entry)

func Provider(provider string) Field {
	return func(e *entry) { e.event.Provider = provider }
}

func Model(model string) Field {
	return func(e *entry) { e.event.Model = model }
}

func Batch(index int) Field {
	return func(e *entry) { e.event.BatchIndex = &index }
}

func Count(n int) Field {
	return func(e *entry) { e.event.ItemCount = &n }
}

func Duration(d time.Duration) Field {
	ms := d.Milliseconds()
	return func(e *entry) { e.event.DurationMs = &ms }
}

func Err(err error) Field {
	return func(e *entry) {
		if err != nil {
			e.event.ErrorMessage = err.Error()
		}
	}
}

// Meta adds a key to the event's nested metadata object.
func Meta(key string, value any) Field {
	return func(e *entry) {
		if e.meta == nil {
			e.meta = make(map[string]any)
		}
		e.meta[key] = value
	}
}
