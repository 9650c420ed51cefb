package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingStatusPending, BookingStatusProcessing, true},
		{BookingStatusProcessing, BookingStatusProcessing, true},
		{BookingStatusFailed, BookingStatusProcessing, true},
		{BookingStatusPaid, BookingStatusProcessing, false},
		{BookingStatusRefunded, BookingStatusProcessing, false},

		{BookingStatusProcessing, BookingStatusPaid, true},
		{BookingStatusPaid, BookingStatusPaid, true},
		{BookingStatusFailed, BookingStatusPaid, true},
		{BookingStatusRefunded, BookingStatusPaid, false},

		{BookingStatusProcessing, BookingStatusFailed, true},
		{BookingStatusPaid, BookingStatusFailed, false},
		{BookingStatusRefunded, BookingStatusFailed, false},

		{BookingStatusPaid, BookingStatusRefunded, true},
		{BookingStatusRefunded, BookingStatusRefunded, true},
		{BookingStatusPending, BookingStatusRefunded, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestBooking_TransitionTo_Rejected(t *testing.T) {
	b := &Booking{ID: "b1", Status: BookingStatusPaid}

	err := b.TransitionTo(BookingStatusProcessing)

	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, BookingStatusPaid, b.Status)
}

func TestBooking_TransitionTo_ClearsFailureOnRecovery(t *testing.T) {
	b := &Booking{ID: "b1", Status: BookingStatusFailed}
	b.MarkFailed("card declined")

	require.NoError(t, b.TransitionTo(BookingStatusPaid))
	assert.Nil(t, b.Error)
	assert.Nil(t, b.ErrorMessage)
}

func TestBooking_LinkPaymentIntent(t *testing.T) {
	b := &Booking{ID: "b1"}

	require.NoError(t, b.LinkPaymentIntent("pi_1"))
	require.NoError(t, b.LinkPaymentIntent("pi_1"), "same id is idempotent")
	require.NoError(t, b.LinkPaymentIntent(""), "empty id is ignored")

	err := b.LinkPaymentIntent("pi_2")
	require.ErrorIs(t, err, ErrIntegrityMismatch)
	assert.Equal(t, "pi_1", *b.ProviderPaymentIntentID)
}

func TestBooking_LinkCheckoutSession_Mismatch(t *testing.T) {
	existing := "cs_1"
	b := &Booking{ID: "b1", ProviderCheckoutSessionID: &existing}

	err := b.LinkCheckoutSession("cs_2")
	require.ErrorIs(t, err, ErrIntegrityMismatch)
	assert.Equal(t, "cs_1", *b.ProviderCheckoutSessionID)
}

func TestBooking_MarkPaid_KeepsFirstTimestamp(t *testing.T) {
	b := &Booking{ID: "b1", Amount: 100, Currency: "cad"}
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	b.MarkPaid(first, 35000, "cad")
	b.MarkPaid(first.Add(time.Hour), 35000, "cad")

	assert.Equal(t, first, *b.PaidAt)
	assert.Equal(t, int64(35000), b.Amount)
}

func TestBooking_MarkFailed_DefaultMessage(t *testing.T) {
	b := &Booking{ID: "b1"}

	b.MarkFailed("")

	assert.Equal(t, BookingErrorPaymentFailed, *b.Error)
	assert.Equal(t, DefaultPaymentFailedMessage, *b.ErrorMessage)
}

func TestBooking_MarkRefunded(t *testing.T) {
	b := &Booking{ID: "b1"}
	at := time.Now().UTC()

	b.MarkRefunded(at, 35000)
	b.MarkRefunded(at.Add(time.Minute), 35000)

	assert.Equal(t, at, *b.RefundedAt)
	assert.Equal(t, int64(35000), *b.RefundAmount)
}

func TestCorrelation_RoundTrip(t *testing.T) {
	md := map[string]string{
		"bookingId": "b1",
		"userId":    "u1",
		"eventName": "Hike",
		"seat":      "4",
	}

	c := CorrelationFromMetadata(md)
	assert.Equal(t, "b1", c.BookingID)
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "Hike", c.EventName)
	assert.Equal(t, map[string]string{"seat": "4"}, c.Extra)

	assert.Equal(t, md, c.Metadata())
}

func TestCorrelation_FixedKeysWin(t *testing.T) {
	c := Correlation{
		BookingID: "b1",
		UserID:    "u1",
		EventName: "Hike",
		Extra:     map[string]string{"bookingId": "spoofed"},
	}

	assert.Equal(t, "b1", c.Metadata()["bookingId"])
}

func TestBooking_CheckFlow(t *testing.T) {
	cs, pi := "cs_1", "pi_1"

	tests := []struct {
		name     string
		booking  Booking
		flow     PaymentFlow
		wantFlow PaymentFlow
		wantErr  bool
	}{
		{"unlinked accepts checkout", Booking{}, PaymentFlowCheckout, "", false},
		{"unlinked accepts intent", Booking{}, PaymentFlowPaymentIntent, "", false},
		{"intent rejects checkout", Booking{ProviderPaymentIntentID: &pi}, PaymentFlowCheckout, PaymentFlowPaymentIntent, true},
		{"intent accepts intent", Booking{ProviderPaymentIntentID: &pi}, PaymentFlowPaymentIntent, PaymentFlowPaymentIntent, false},
		{"session rejects intent", Booking{ProviderCheckoutSessionID: &cs}, PaymentFlowPaymentIntent, PaymentFlowCheckout, true},
		{"completed session rejects intent", Booking{ProviderCheckoutSessionID: &cs, ProviderPaymentIntentID: &pi}, PaymentFlowPaymentIntent, PaymentFlowCheckout, true},
		{"completed session accepts checkout", Booking{ProviderCheckoutSessionID: &cs, ProviderPaymentIntentID: &pi}, PaymentFlowCheckout, PaymentFlowCheckout, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantFlow, tc.booking.Flow())

			err := tc.booking.CheckFlow(tc.flow)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrIntegrityMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingStatus_IsSettled(t *testing.T) {
	assert.True(t, BookingStatusPaid.IsSettled())
	assert.True(t, BookingStatusRefunded.IsSettled())
	assert.False(t, BookingStatusFailed.IsSettled())
	assert.False(t, BookingStatusProcessing.IsSettled())
	assert.False(t, BookingStatusPending.IsSettled())
}
