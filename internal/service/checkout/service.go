package checkout

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/she-travels/payments/internal/domain"
	"github.com/she-travels/payments/internal/logging"
	"github.com/she-travels/payments/internal/provider"
)

type paymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req provider.CheckoutSessionRequest) (*provider.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, req provider.PaymentIntentRequest) (*provider.PaymentIntent, error)
}

type bookingStore interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	Update(ctx context.Context, id string, mutate func(*domain.Booking) error) (*domain.Booking, error)
}

type Options struct {
	ProviderTimeout time.Duration
	StoreTimeout    time.Duration
}

// Service creates provider payment objects for a booking and moves the
// booking to processing once the provider has accepted them.
type Service struct {
	provider paymentProvider
	bookings bookingStore
	opts     Options
}

func NewService(p paymentProvider, bookings bookingStore, opts Options) *Service {
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = 10 * time.Second
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &Service{provider: p, bookings: bookings, opts: opts}
}

// Request is the validated input shared by both originators. Amount is in
// minor units and Currency is already lowercased.
type Request struct {
	BookingID string
	UserID    string
	UserEmail string
	EventName string
	Amount    int64
	Currency  string
	Metadata  map[string]string
}

func (r Request) correlation() domain.Correlation {
	return domain.Correlation{
		BookingID: r.BookingID,
		UserID:    r.UserID,
		EventName: r.EventName,
		Extra:     r.Metadata,
	}
}

func (r Request) description() string {
	return "Booking for " + r.EventName
}

func (r Request) idempotencyKey(kind domain.PaymentFlow) string {
	return fmt.Sprintf("%s-%s-%d-%s", kind, r.BookingID, r.Amount, r.Currency)
}

type CheckoutResult struct {
	CheckoutURL string
	SessionID   string
}

type PaymentIntentResult struct {
	ClientSecret    string
	PaymentIntentID string
}

// CreateCheckoutSession starts a hosted checkout for the booking. redirectBase
// is the origin the payer returns to afterwards.
func (s *Service) CreateCheckoutSession(ctx context.Context, req Request, redirectBase string) (*CheckoutResult, error) {
	ctx = logging.With(ctx, "booking_id", req.BookingID, "operation", "checkout_session")
	log := logging.FromContext(ctx)

	if err := s.preflight(ctx, req.BookingID, domain.PaymentFlowCheckout); err != nil {
		return nil, fmt.Errorf("CreateCheckoutSession: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	sess, err := s.provider.CreateCheckoutSession(pctx, provider.CheckoutSessionRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		CustomerEmail:  req.UserEmail,
		ProductName:    req.EventName,
		Description:    req.description(),
		Metadata:       req.correlation().Metadata(),
		SuccessURL:     successURL(redirectBase, req.BookingID, req.EventName),
		CancelURL:      redirectBase + "/?cancelled=true",
		IdempotencyKey: req.idempotencyKey(domain.PaymentFlowCheckout),
	})
	if err != nil {
		log.Error("checkout session creation failed", "error", err)
		return nil, fmt.Errorf("CreateCheckoutSession: %w", err)
	}

	err = s.markProcessing(ctx, req.BookingID, domain.PaymentFlowCheckout, func(b *domain.Booking) error {
		return b.LinkCheckoutSession(sess.ID)
	})
	if err != nil {
		log.Error("booking not updated after checkout session was created",
			"orphaned_session_id", sess.ID,
			"error", err,
		)
		return nil, fmt.Errorf("CreateCheckoutSession: %w", err)
	}

	log.Info("checkout session created", "session_id", sess.ID)
	return &CheckoutResult{CheckoutURL: sess.URL, SessionID: sess.ID}, nil
}

// CreatePaymentIntent starts an in-app payment for the booking.
func (s *Service) CreatePaymentIntent(ctx context.Context, req Request) (*PaymentIntentResult, error) {
	ctx = logging.With(ctx, "booking_id", req.BookingID, "operation", "payment_intent")
	log := logging.FromContext(ctx)

	if err := s.preflight(ctx, req.BookingID, domain.PaymentFlowPaymentIntent); err != nil {
		return nil, fmt.Errorf("CreatePaymentIntent: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	pi, err := s.provider.CreatePaymentIntent(pctx, provider.PaymentIntentRequest{
		Amount:         req.Amount,
		Currency:       req.Currency,
		ReceiptEmail:   req.UserEmail,
		Description:    req.description(),
		Metadata:       req.correlation().Metadata(),
		IdempotencyKey: req.idempotencyKey(domain.PaymentFlowPaymentIntent),
	})
	if err != nil {
		log.Error("payment intent creation failed", "error", err)
		return nil, fmt.Errorf("CreatePaymentIntent: %w", err)
	}

	err = s.markProcessing(ctx, req.BookingID, domain.PaymentFlowPaymentIntent, func(b *domain.Booking) error {
		return b.LinkPaymentIntent(pi.ID)
	})
	if err != nil {
		log.Error("booking not updated after payment intent was created",
			"orphaned_payment_intent_id", pi.ID,
			"error", err,
		)
		return nil, fmt.Errorf("CreatePaymentIntent: %w", err)
	}

	log.Info("payment intent created", "payment_intent_id", pi.ID)
	return &PaymentIntentResult{ClientSecret: pi.ClientSecret, PaymentIntentID: pi.ID}, nil
}

// preflight rejects bookings that do not exist, are already settled or are
// linked through the other flow before anything is created on the provider
// side.
func (s *Service) preflight(ctx context.Context, bookingID string, flow domain.PaymentFlow) error {
	sctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	b, err := s.bookings.GetByID(sctx, bookingID)
	if err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	if b.Status.IsSettled() {
		return fmt.Errorf("preflight: booking is %s: %w", b.Status, domain.ErrInvalidTransition)
	}
	if err := b.CheckFlow(flow); err != nil {
		return fmt.Errorf("preflight: %w", err)
	}
	return nil
}

func (s *Service) markProcessing(ctx context.Context, bookingID string, flow domain.PaymentFlow, link func(*domain.Booking) error) error {
	sctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	_, err := s.bookings.Update(sctx, bookingID, func(b *domain.Booking) error {
		if err := b.CheckFlow(flow); err != nil {
			return err
		}
		if err := link(b); err != nil {
			return err
		}
		return b.TransitionTo(domain.BookingStatusProcessing)
	})
	if err != nil {
		return fmt.Errorf("markProcessing: %w", err)
	}
	return nil
}

func successURL(base, bookingID, eventName string) string {
	q := url.Values{}
	q.Set("booking_id", bookingID)
	q.Set("event_name", eventName)
	// The placeholder is substituted by Stripe and must stay unescaped.
	return base + "/payment-success?session_id={CHECKOUT_SESSION_ID}&" + q.Encode()
}
