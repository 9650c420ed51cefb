package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/she-travels/payments/internal/domain"
	"github.com/she-travels/payments/internal/logging"
	"github.com/she-travels/payments/internal/metrics"
	"github.com/she-travels/payments/internal/provider"
	"github.com/she-travels/payments/internal/service/reconcile"
)

type eventVerifier interface {
	Verify(payload []byte, signature string) (*provider.VerifiedEvent, error)
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, ev domain.Event) reconcile.Outcome
}

type webhookEventRecorder interface {
	Record(ctx context.Context, event *domain.WebhookEvent) error
}

type WebhookHandler struct {
	verifier eventVerifier
	router   eventDispatcher
	audit    webhookEventRecorder
}

func NewWebhookHandler(verifier eventVerifier, router eventDispatcher, audit webhookEventRecorder) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, router: router, audit: audit}
}

type webhookAck struct {
	Received bool `json:"received"`
}

// ReceiveStripeWebhook verifies and reconciles one provider delivery. Dropped
// and quarantined events are acknowledged so the provider stops retrying;
// failures answer 500 so it redelivers.
func (h *WebhookHandler) ReceiveStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	log := logging.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	verified, err := h.verifier.Verify(body, r.Header.Get(provider.SignatureHeader))
	if err != nil {
		metrics.WebhookSignatureFailuresTotal.Inc()
		log.Warn("webhook signature verification failed", "error", err)
		RespondAppError(w, ErrInvalidSignature, nil)
		return
	}

	ctx := logging.With(r.Context(), "provider_event_id", verified.ID, "event_type", verified.Type)
	log = logging.FromContext(ctx)

	record := &domain.WebhookEvent{
		ID:              uuid.New(),
		ProviderEventID: verified.ID,
		EventType:       verified.Type,
		Payload:         body,
		CreatedAt:       time.Now().UTC(),
	}

	ev, err := provider.ParseEvent(verified)
	if err != nil {
		log.Error("webhook event quarantined", "error", err)
		record.Status = domain.WebhookEventStatusQuarantined
		record.Reason = strPtr(err.Error())
		h.record(ctx, record)
		metrics.WebhookEventsTotal.WithLabelValues(verified.Type, string(domain.WebhookEventStatusQuarantined)).Inc()
		RespondJSON(w, http.StatusOK, webhookAck{Received: true})
		return
	}

	out := h.router.Dispatch(ctx, ev)

	record.Status = statusFor(out.Kind)
	if out.BookingID != "" {
		record.BookingID = strPtr(out.BookingID)
	}
	switch {
	case out.Err != nil:
		record.Reason = strPtr(out.Err.Error())
	case out.Reason != "":
		record.Reason = strPtr(out.Reason)
	}
	h.record(ctx, record)
	metrics.WebhookEventsTotal.WithLabelValues(verified.Type, out.Kind.String()).Inc()

	if out.Kind == reconcile.Failed {
		RespondAppError(w, ErrReconcileFailed, nil)
		return
	}

	RespondJSON(w, http.StatusOK, webhookAck{Received: true})
}

// record stores the delivery in the audit log. A failure here never changes
// the response.
func (h *WebhookHandler) record(ctx context.Context, event *domain.WebhookEvent) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Record(ctx, event); err != nil {
		logging.FromContext(ctx).Error("failed to record webhook event", "error", err)
	}
}

func statusFor(kind reconcile.OutcomeKind) domain.WebhookEventStatus {
	switch kind {
	case reconcile.Applied:
		return domain.WebhookEventStatusApplied
	case reconcile.Dropped:
		return domain.WebhookEventStatusDropped
	default:
		return domain.WebhookEventStatusFailed
	}
}

func strPtr(s string) *string {
	return &s
}
