package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/homwrkk/IUI/internal/logger"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey string

const (
	contextKeyWideEvent contextKey = "wide_event"
	contextKeyTraceID   contextKey = "trace_id"
)

// WideEvent is a single structured log entry describing one request end to end.
// Handlers and middleware enrich it as the request flows through; it is emitted once.
type WideEvent struct {
	TraceID   string    `json:"trace_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`

	HTTPMethod     string `json:"http_method,omitempty"`
	HTTPPath       string `json:"http_path,omitempty"`
	HTTPStatusCode int    `json:"http_status_code,omitempty"`
	HTTPDurationMs int64  `json:"http_duration_ms,omitempty"`

	UserID    string `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`

	// Membership context
	Tier         string `json:"tier,omitempty"`
	BillingCycle string `json:"billing_cycle,omitempty"`
	TargetTier   string `json:"target_tier,omitempty"`

	CheckoutSessionID string `json:"checkout_session_id,omitempty"`

	WebhookEventID   string `json:"webhook_event_id,omitempty"`
	WebhookEventType string `json:"webhook_event_type,omitempty"`

	Error          string `json:"error,omitempty"`
	ErrorStage     string `json:"error_stage,omitempty"`
	PanicRecovered bool   `json:"panic_recovered,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewWideEvent creates a new WideEvent with a trace ID and timestamp
func NewWideEvent(eventType string) *WideEvent {
	return &WideEvent{
		TraceID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// WithContext attaches a WideEvent to a context
func WithContext(ctx context.Context, event *WideEvent) context.Context {
	ctx = context.WithValue(ctx, contextKeyWideEvent, event)
	ctx = context.WithValue(ctx, contextKeyTraceID, event.TraceID)
	return ctx
}

// FromContext retrieves the WideEvent from a context
func FromContext(ctx context.Context) *WideEvent {
	if event, ok := ctx.Value(contextKeyWideEvent).(*WideEvent); ok {
		return event
	}
	return nil
}

func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKeyTraceID).(string); ok {
		return traceID
	}
	return ""
}

func EnrichHTTP(ctx context.Context, method, path string) {
	if event := FromContext(ctx); event != nil {
		event.HTTPMethod = method
		event.HTTPPath = path
	}
}

func EnrichHTTPResult(ctx context.Context, statusCode int, duration time.Duration) {
	if event := FromContext(ctx); event != nil {
		event.HTTPStatusCode = statusCode
		event.HTTPDurationMs = duration.Milliseconds()
	}
}

func EnrichUser(ctx context.Context, userID, email string) {
	if event := FromContext(ctx); event != nil {
		event.UserID = userID
		event.UserEmail = email
	}
}

func EnrichMembership(ctx context.Context, tier, cycle string) {
	if event := FromContext(ctx); event != nil {
		event.Tier = tier
		event.BillingCycle = cycle
	}
}

func EnrichCheckout(ctx context.Context, targetTier, sessionID string) {
	if event := FromContext(ctx); event != nil {
		event.TargetTier = targetTier
		event.CheckoutSessionID = sessionID
	}
}

func EnrichWebhook(ctx context.Context, eventID, eventType string) {
	if event := FromContext(ctx); event != nil {
		event.WebhookEventID = eventID
		event.WebhookEventType = eventType
	}
}

func EnrichError(ctx context.Context, err error, stage string) {
	if event := FromContext(ctx); event != nil && err != nil {
		event.Error = err.Error()
		event.ErrorStage = stage
	}
}

func EnrichPanic(ctx context.Context) {
	if event := FromContext(ctx); event != nil {
		event.PanicRecovered = true
	}
}

func EnrichMetadata(ctx context.Context, key string, value interface{}) {
	if event := FromContext(ctx); event != nil {
		event.Metadata[key] = value
	}
}

// Attrs flattens the event into slog attributes, skipping empty fields.
func (e *WideEvent) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("trace_id", e.TraceID),
		slog.String("event_type", e.EventType),
		slog.Time("timestamp", e.Timestamp),
	}

	str := func(key, value string) {
		if value != "" {
			attrs = append(attrs, slog.String(key, value))
		}
	}

	str("http_method", e.HTTPMethod)
	str("http_path", e.HTTPPath)
	if e.HTTPStatusCode != 0 {
		attrs = append(attrs, slog.Int("http_status_code", e.HTTPStatusCode))
	}
	if e.HTTPDurationMs != 0 {
		attrs = append(attrs, slog.Int64("http_duration_ms", e.HTTPDurationMs))
	}

	str("user_id", e.UserID)
	str("user_email", e.UserEmail)
	str("tier", e.Tier)
	str("billing_cycle", e.BillingCycle)
	str("target_tier", e.TargetTier)
	str("checkout_session_id", e.CheckoutSessionID)
	str("webhook_event_id", e.WebhookEventID)
	str("webhook_event_type", e.WebhookEventType)
	str("error", e.Error)
	str("error_stage", e.ErrorStage)
	if e.PanicRecovered {
		attrs = append(attrs, slog.Bool("panic_recovered", true))
	}

	if len(e.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", e.Metadata))
	}
	return attrs
}

// Level is Error when the request failed or panicked, Info otherwise.
func (e *WideEvent) Level() slog.Level {
	if e.Error != "" || e.PanicRecovered || e.HTTPStatusCode >= 500 {
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Emit outputs the WideEvent as a structured log
func Emit(ctx context.Context) {
	event := FromContext(ctx)
	if event == nil {
		return
	}
	logger.Log.LogAttrs(ctx, event.Level(), "wide_event", event.Attrs()...)
}
