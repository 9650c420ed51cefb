package provider

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/she-travels/payments/internal/domain"
)

// SignatureHeader is the header Stripe puts the event signature in.
const SignatureHeader = "Stripe-Signature"

// VerifiedEvent is a provider event whose signature checked out but whose
// payload has not been interpreted yet.
type VerifiedEvent struct {
	ID   string
	Type string
	Data json.RawMessage
}

type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Verify checks the signature against the exact bytes received. The payload
// must not be re-encoded before this call.
func (v *Verifier) Verify(payload []byte, signature string) (*VerifiedEvent, error) {
	if signature == "" {
		return nil, fmt.Errorf("Verify: missing signature: %w", domain.ErrInvalidSignature)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("Verify: %w: %v", domain.ErrInvalidSignature, err)
	}

	out := &VerifiedEvent{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data != nil {
		out.Data = ev.Data.Raw
	}
	return out, nil
}

// SignPayload produces a Stripe-Signature header value for payload, as Stripe
// would at time t. Used by the replay tool and tests.
func SignPayload(payload []byte, secret string, t time.Time) string {
	sig := webhook.ComputeSignature(t, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", t.Unix(), hex.EncodeToString(sig))
}
