package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/logging"
	"github.com/homwrkk/IUI/internal/metrics"
	"github.com/homwrkk/IUI/internal/subscription"
	"github.com/stripe/stripe-go/v84"
)

const maxWebhookBodyBytes = 1 << 16

type WebhookVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error)
}

// EventDispatcher hands a verified event to whatever applies it: the Temporal workflow starter or
// an inline processor.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event subscription.Event) error
}

// Processor is satisfied by subscription.EventProcessor.
type Processor interface {
	Process(ctx context.Context, event subscription.Event) error
}

// InlineDispatcher processes events within the webhook request.
type InlineDispatcher struct {
	processor Processor
}

func NewInlineDispatcher(processor Processor) *InlineDispatcher {
	return &InlineDispatcher{processor: processor}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, event subscription.Event) error {
	return d.processor.Process(ctx, event)
}

type WebhookHandler struct {
	verifier   WebhookVerifier
	dispatcher EventDispatcher
	metrics    *metrics.Metrics
}

func NewWebhookHandler(verifier WebhookVerifier, dispatcher EventDispatcher, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, dispatcher: dispatcher, metrics: m}
}

func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logging.EnrichError(r.Context(), err, "webhook_read")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to read body")
		return
	}

	stripeEvent, err := h.verifier.VerifyWebhookSignature(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logging.EnrichError(r.Context(), err, "webhook_signature")
		logger.Log.Warn("webhook signature verification failed", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid_signature", "invalid signature")
		return
	}

	event := subscription.EventFromStripe(stripeEvent)
	logging.EnrichWebhook(r.Context(), event.ID, event.Type)

	if !subscription.Handles(event.Type) {
		h.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeIgnored)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		h.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeError)
		logging.EnrichError(r.Context(), err, "webhook_dispatch")
		logger.Log.Error("webhook handling failed", "event_id", event.ID, "event_type", event.Type, "error", err)
		writeError(w, http.StatusInternalServerError, "webhook_failed", "webhook handling failed")
		return
	}

	h.metrics.RecordWebhookEvent(event.Type, metrics.OutcomeSuccess)
	w.WriteHeader(http.StatusOK)
}
