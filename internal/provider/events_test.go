package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/she-travels/payments/internal/domain"
)

func verified(id, typ, data string) *VerifiedEvent {
	return &VerifiedEvent{ID: id, Type: typ, Data: json.RawMessage(data)}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name string
		in   *VerifiedEvent
		want domain.Event
	}{
		{
			name: "checkout session completed",
			in: verified("evt_1", "checkout.session.completed", `{
				"id": "cs_1", "object": "checkout.session",
				"payment_intent": "pi_1", "amount_total": 35000, "currency": "cad",
				"metadata": {"bookingId": "b1", "userId": "u1", "eventName": "Hike", "seat": "4"}
			}`),
			want: domain.CheckoutSessionCompleted{
				ID:              "evt_1",
				SessionID:       "cs_1",
				PaymentIntentID: "pi_1",
				AmountTotal:     35000,
				Currency:        "cad",
				Correlation: domain.Correlation{
					BookingID: "b1", UserID: "u1", EventName: "Hike",
					Extra: map[string]string{"seat": "4"},
				},
			},
		},
		{
			name: "checkout session without payment intent",
			in: verified("evt_2", "checkout.session.completed", `{
				"id": "cs_2", "object": "checkout.session", "amount_total": 100, "currency": "cad",
				"metadata": {"bookingId": "b2"}
			}`),
			want: domain.CheckoutSessionCompleted{
				ID: "evt_2", SessionID: "cs_2", AmountTotal: 100, Currency: "cad",
				Correlation: domain.Correlation{BookingID: "b2"},
			},
		},
		{
			name: "payment intent succeeded",
			in: verified("evt_3", "payment_intent.succeeded", `{
				"id": "pi_3", "object": "payment_intent", "amount": 500, "currency": "usd",
				"metadata": {"bookingId": "b3"}
			}`),
			want: domain.PaymentIntentSucceeded{
				ID: "evt_3", PaymentIntentID: "pi_3", Amount: 500, Currency: "usd",
				Correlation: domain.Correlation{BookingID: "b3"},
			},
		},
		{
			name: "payment intent failed with message",
			in: verified("evt_4", "payment_intent.payment_failed", `{
				"id": "pi_4", "object": "payment_intent",
				"last_payment_error": {"message": "Your card was declined.", "type": "card_error"},
				"metadata": {"bookingId": "b4"}
			}`),
			want: domain.PaymentIntentFailed{
				ID: "evt_4", PaymentIntentID: "pi_4", FailureMessage: "Your card was declined.",
				Correlation: domain.Correlation{BookingID: "b4"},
			},
		},
		{
			name: "payment intent failed without message",
			in: verified("evt_5", "payment_intent.payment_failed", `{
				"id": "pi_5", "object": "payment_intent", "metadata": {}
			}`),
			want: domain.PaymentIntentFailed{ID: "evt_5", PaymentIntentID: "pi_5"},
		},
		{
			name: "charge refunded",
			in: verified("evt_6", "charge.refunded", `{
				"id": "ch_6", "object": "charge", "payment_intent": "pi_6", "amount_refunded": 35000
			}`),
			want: domain.ChargeRefunded{
				ID: "evt_6", ChargeID: "ch_6", PaymentIntentID: "pi_6", AmountRefunded: 35000,
			},
		},
		{
			name: "unhandled type",
			in:   verified("evt_7", "customer.created", `{"id": "cus_7", "object": "customer"}`),
			want: domain.UnhandledEvent{ID: "evt_7", RawType: "customer.created"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEvent(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in.ID, got.EventID())
		})
	}
}

func TestParseEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		in   *VerifiedEvent
	}{
		{"empty data", verified("evt_1", "charge.refunded", ``)},
		{"wrong shape", verified("evt_2", "payment_intent.succeeded", `{"amount": "lots"}`)},
		{"missing id", verified("evt_3", "checkout.session.completed", `{"object": "checkout.session"}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEvent(tc.in)
			assert.ErrorIs(t, err, domain.ErrMalformedEvent)
		})
	}
}
