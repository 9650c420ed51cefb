package reconcile

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/she-travels/payments/internal/domain"
	"github.com/she-travels/payments/internal/logging"
	"github.com/she-travels/payments/internal/metrics"
)

type bookingStore interface {
	Update(ctx context.Context, id string, mutate func(*domain.Booking) error) (*domain.Booking, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Booking, error)
}

// errUnchanged aborts an update whose mutation left the booking as it was, so
// a replayed event does not touch updated_at.
var errUnchanged = errors.New("booking unchanged")

type Options struct {
	StoreTimeout time.Duration
	Now          func() time.Time
}

// Router hands each verified provider event to the handler for its type.
type Router struct {
	bookings     bookingStore
	storeTimeout time.Duration
	now          func() time.Time
}

func NewRouter(bookings bookingStore, opts Options) *Router {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Router{bookings: bookings, storeTimeout: opts.StoreTimeout, now: opts.Now}
}

func (r *Router) Dispatch(ctx context.Context, ev domain.Event) Outcome {
	ctx = logging.With(ctx, "event_id", ev.EventID(), "event_type", ev.Type())

	var out Outcome
	switch e := ev.(type) {
	case domain.CheckoutSessionCompleted:
		out = r.checkoutCompleted(ctx, e)
	case domain.PaymentIntentSucceeded:
		out = r.paymentSucceeded(ctx, e)
	case domain.PaymentIntentFailed:
		out = r.paymentFailed(ctx, e)
	case domain.ChargeRefunded:
		out = r.chargeRefunded(ctx, e)
	default:
		out = dropped("", ReasonUnhandledType)
	}

	report(ctx, out)
	return out
}

// apply runs mutate against the booking inside the store's conditional update
// and classifies the result.
func (r *Router) apply(ctx context.Context, bookingID string, mutate func(*domain.Booking) error) Outcome {
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	_, err := r.bookings.Update(ctx, bookingID, func(b *domain.Booking) error {
		before := *b
		if err := mutate(b); err != nil {
			return err
		}
		if reflect.DeepEqual(before, *b) {
			return errUnchanged
		}
		return nil
	})

	switch {
	case err == nil:
		return applied(bookingID)
	case errors.Is(err, errUnchanged):
		out := applied(bookingID)
		out.Reason = ReasonUnchanged
		return out
	case errors.Is(err, domain.ErrNotFound):
		return dropped(bookingID, ReasonBookingNotFound)
	case errors.Is(err, domain.ErrInvalidTransition):
		out := dropped(bookingID, ReasonStaleEvent)
		out.Err = err
		return out
	default:
		return failed(bookingID, err)
	}
}

func report(ctx context.Context, out Outcome) {
	log := logging.FromContext(ctx)
	if out.BookingID != "" {
		log = log.With("booking_id", out.BookingID)
	}

	switch out.Kind {
	case Applied:
		if out.Reason != "" {
			log.Info("event already reconciled", "reason", out.Reason)
			return
		}
		log.Info("event reconciled")
	case Dropped:
		args := []any{"reason", out.Reason}
		if out.Err != nil {
			args = append(args, "error", out.Err)
		}
		log.Warn("event dropped", args...)
	case Failed:
		if errors.Is(out.Err, domain.ErrIntegrityMismatch) {
			metrics.IntegrityMismatchesTotal.Inc()
			log.Error("provider identifier conflicts with booking", "error", out.Err)
			return
		}
		log.Error("event reconciliation failed", "error", out.Err)
	}
}
