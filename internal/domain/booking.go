package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusProcessing BookingStatus = "processing"
	BookingStatusPaid       BookingStatus = "paid"
	BookingStatusFailed     BookingStatus = "failed"
	BookingStatusRefunded   BookingStatus = "refunded"
)

// allowedFrom lists, per target status, the statuses a booking may move from.
// Replays of the same terminal event are self-transitions and stay allowed.
var allowedFrom = map[BookingStatus][]BookingStatus{
	BookingStatusProcessing: {BookingStatusPending, BookingStatusProcessing, BookingStatusFailed},
	BookingStatusPaid:       {BookingStatusPending, BookingStatusProcessing, BookingStatusFailed, BookingStatusPaid},
	BookingStatusFailed:     {BookingStatusPending, BookingStatusProcessing, BookingStatusFailed},
	BookingStatusRefunded:   {BookingStatusProcessing, BookingStatusPaid, BookingStatusFailed, BookingStatusRefunded},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, from := range allowedFrom[next] {
		if from == s {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsSettled() bool {
	return s == BookingStatusPaid || s == BookingStatusRefunded
}

// PaymentFlow names the originator that linked a booking to the provider.
type PaymentFlow string

const (
	PaymentFlowCheckout      PaymentFlow = "checkout"
	PaymentFlowPaymentIntent PaymentFlow = "payment_intent"
)

// Provider status tags recorded on the booking for the last applied event.
const (
	ProviderStatusCheckoutCompleted = "checkout_session_completed"
	ProviderStatusPaymentSucceeded  = "payment_intent_succeeded"
	ProviderStatusPaymentFailed     = "payment_intent_failed"
	ProviderStatusChargeRefunded    = "charge_refunded"
)

const (
	BookingErrorPaymentFailed   = "payment_failed"
	DefaultPaymentFailedMessage = "Payment failed"
)

type Booking struct {
	ID                        string
	UserID                    string
	EventName                 string
	Status                    BookingStatus
	Amount                    int64
	Currency                  string
	ProviderCheckoutSessionID *string
	ProviderPaymentIntentID   *string
	ProviderStatus            *string
	PaidAt                    *time.Time
	RefundedAt                *time.Time
	RefundAmount              *int64
	Error                     *string
	ErrorMessage              *string
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// TransitionTo moves the booking to next, or returns ErrInvalidTransition.
func (b *Booking) TransitionTo(next BookingStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", b.Status, next, ErrInvalidTransition)
	}
	b.Status = next
	if next != BookingStatusFailed {
		b.Error = nil
		b.ErrorMessage = nil
	}
	return nil
}

// LinkCheckoutSession records the provider session id. A different id already
// on the booking is an integrity fault and is never overwritten.
func (b *Booking) LinkCheckoutSession(id string) error {
	if id == "" {
		return nil
	}
	if err := checkLink("checkout session", b.ProviderCheckoutSessionID, id); err != nil {
		return err
	}
	b.ProviderCheckoutSessionID = &id
	return nil
}

func (b *Booking) LinkPaymentIntent(id string) error {
	if id == "" {
		return nil
	}
	if err := checkLink("payment intent", b.ProviderPaymentIntentID, id); err != nil {
		return err
	}
	b.ProviderPaymentIntentID = &id
	return nil
}

func checkLink(kind string, current *string, next string) error {
	if current != nil && *current != "" && *current != next {
		return fmt.Errorf("%s %q already linked, got %q: %w", kind, *current, next, ErrIntegrityMismatch)
	}
	return nil
}

// Flow reports which originator the booking is linked through, or "" when it
// has no provider identifier yet. A checkout session also carries the intent it
// creates, so a session id takes precedence.
func (b *Booking) Flow() PaymentFlow {
	switch {
	case b.ProviderCheckoutSessionID != nil && *b.ProviderCheckoutSessionID != "":
		return PaymentFlowCheckout
	case b.ProviderPaymentIntentID != nil && *b.ProviderPaymentIntentID != "":
		return PaymentFlowPaymentIntent
	}
	return ""
}

// CheckFlow returns ErrIntegrityMismatch when the booking is already linked
// through the other originator.
func (b *Booking) CheckFlow(f PaymentFlow) error {
	if current := b.Flow(); current != "" && current != f {
		return fmt.Errorf("booking linked via %s, got %s: %w", current, f, ErrIntegrityMismatch)
	}
	return nil
}

// MarkPaid keeps the first paidAt so replays leave the booking unchanged.
func (b *Booking) MarkPaid(at time.Time, amount int64, currency string) {
	if b.PaidAt == nil {
		b.PaidAt = &at
	}
	if amount > 0 {
		b.Amount = amount
	}
	if currency != "" {
		b.Currency = currency
	}
}

func (b *Booking) MarkFailed(message string) {
	if message == "" {
		message = DefaultPaymentFailedMessage
	}
	tag := BookingErrorPaymentFailed
	b.Error = &tag
	b.ErrorMessage = &message
}

func (b *Booking) MarkRefunded(at time.Time, amount int64) {
	if b.RefundedAt == nil {
		b.RefundedAt = &at
	}
	b.RefundAmount = &amount
}

func (b *Booking) SetProviderStatus(tag string) {
	b.ProviderStatus = &tag
}
