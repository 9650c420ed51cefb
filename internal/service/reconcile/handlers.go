package reconcile

import (
	"context"
	"errors"

	"github.com/she-travels/payments/internal/domain"
)

func (r *Router) checkoutCompleted(ctx context.Context, e domain.CheckoutSessionCompleted) Outcome {
	bookingID := e.Correlation.BookingID
	if bookingID == "" {
		return dropped("", ReasonMissingCorrelation)
	}

	// TODO: send the booking confirmation email and decrement the event's open
	// slots after a first-time apply, once the notification and inventory
	// services exist.
	now := r.now()
	return r.apply(ctx, bookingID, func(b *domain.Booking) error {
		if err := b.TransitionTo(domain.BookingStatusPaid); err != nil {
			return err
		}
		if err := b.LinkCheckoutSession(e.SessionID); err != nil {
			return err
		}
		if err := b.LinkPaymentIntent(e.PaymentIntentID); err != nil {
			return err
		}
		b.MarkPaid(now, e.AmountTotal, e.Currency)
		b.SetProviderStatus(domain.ProviderStatusCheckoutCompleted)
		return nil
	})
}

func (r *Router) paymentSucceeded(ctx context.Context, e domain.PaymentIntentSucceeded) Outcome {
	bookingID := e.Correlation.BookingID
	if bookingID == "" {
		return dropped("", ReasonMissingCorrelation)
	}

	now := r.now()
	return r.apply(ctx, bookingID, func(b *domain.Booking) error {
		if err := b.TransitionTo(domain.BookingStatusPaid); err != nil {
			return err
		}
		if err := b.LinkPaymentIntent(e.PaymentIntentID); err != nil {
			return err
		}
		b.MarkPaid(now, e.Amount, e.Currency)
		b.SetProviderStatus(domain.ProviderStatusPaymentSucceeded)
		return nil
	})
}

func (r *Router) paymentFailed(ctx context.Context, e domain.PaymentIntentFailed) Outcome {
	bookingID := e.Correlation.BookingID
	if bookingID == "" {
		return dropped("", ReasonMissingCorrelation)
	}

	return r.apply(ctx, bookingID, func(b *domain.Booking) error {
		if err := b.TransitionTo(domain.BookingStatusFailed); err != nil {
			return err
		}
		if err := b.LinkPaymentIntent(e.PaymentIntentID); err != nil {
			return err
		}
		b.MarkFailed(e.FailureMessage)
		b.SetProviderStatus(domain.ProviderStatusPaymentFailed)
		return nil
	})
}

// chargeRefunded resolves the booking through the charge's payment intent,
// since refund events carry no booking metadata.
func (r *Router) chargeRefunded(ctx context.Context, e domain.ChargeRefunded) Outcome {
	if e.PaymentIntentID == "" {
		return dropped("", ReasonNoPaymentIntent)
	}

	lctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	b, err := r.bookings.FindByPaymentIntentID(lctx, e.PaymentIntentID)
	cancel()
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return dropped("", ReasonBookingNotFound)
		}
		return failed("", err)
	}

	now := r.now()
	return r.apply(ctx, b.ID, func(b *domain.Booking) error {
		if err := b.TransitionTo(domain.BookingStatusRefunded); err != nil {
			return err
		}
		// Re-checked under the row lock in case the link changed since the lookup.
		if err := b.LinkPaymentIntent(e.PaymentIntentID); err != nil {
			return err
		}
		b.MarkRefunded(now, e.AmountRefunded)
		b.SetProviderStatus(domain.ProviderStatusChargeRefunded)
		return nil
	})
}
