package provider

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"

	"github.com/she-travels/payments/internal/domain"
)

// ParseEvent turns a verified event into one of the domain event variants.
// Types we do not reconcile become domain.UnhandledEvent; a handled type whose
// payload cannot be decoded returns ErrMalformedEvent.
func ParseEvent(ev *VerifiedEvent) (domain.Event, error) {
	switch domain.EventType(ev.Type) {
	case domain.EventTypeCheckoutSessionCompleted:
		var s stripe.CheckoutSession
		if err := decode(ev, &s); err != nil {
			return nil, err
		}
		if s.ID == "" {
			return nil, malformed(ev, "checkout session id missing")
		}
		out := domain.CheckoutSessionCompleted{
			ID:          ev.ID,
			SessionID:   s.ID,
			AmountTotal: s.AmountTotal,
			Currency:    string(s.Currency),
			Correlation: domain.CorrelationFromMetadata(s.Metadata),
		}
		if s.PaymentIntent != nil {
			out.PaymentIntentID = s.PaymentIntent.ID
		}
		return out, nil

	case domain.EventTypePaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if err := decode(ev, &pi); err != nil {
			return nil, err
		}
		if pi.ID == "" {
			return nil, malformed(ev, "payment intent id missing")
		}
		return domain.PaymentIntentSucceeded{
			ID:              ev.ID,
			PaymentIntentID: pi.ID,
			Amount:          pi.Amount,
			Currency:        string(pi.Currency),
			Correlation:     domain.CorrelationFromMetadata(pi.Metadata),
		}, nil

	case domain.EventTypePaymentIntentFailed:
		var pi stripe.PaymentIntent
		if err := decode(ev, &pi); err != nil {
			return nil, err
		}
		if pi.ID == "" {
			return nil, malformed(ev, "payment intent id missing")
		}
		out := domain.PaymentIntentFailed{
			ID:              ev.ID,
			PaymentIntentID: pi.ID,
			Correlation:     domain.CorrelationFromMetadata(pi.Metadata),
		}
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}
		return out, nil

	case domain.EventTypeChargeRefunded:
		var ch stripe.Charge
		if err := decode(ev, &ch); err != nil {
			return nil, err
		}
		if ch.ID == "" {
			return nil, malformed(ev, "charge id missing")
		}
		out := domain.ChargeRefunded{
			ID:             ev.ID,
			ChargeID:       ch.ID,
			AmountRefunded: ch.AmountRefunded,
		}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
		return out, nil

	default:
		return domain.UnhandledEvent{ID: ev.ID, RawType: ev.Type}, nil
	}
}

func decode(ev *VerifiedEvent, v any) error {
	if len(ev.Data) == 0 {
		return malformed(ev, "data.object missing")
	}
	if err := json.Unmarshal(ev.Data, v); err != nil {
		return fmt.Errorf("ParseEvent: %s %s: %w: %v", ev.Type, ev.ID, domain.ErrMalformedEvent, err)
	}
	return nil
}

func malformed(ev *VerifiedEvent, reason string) error {
	return fmt.Errorf("ParseEvent: %s %s: %w: %s", ev.Type, ev.ID, domain.ErrMalformedEvent, reason)
}
