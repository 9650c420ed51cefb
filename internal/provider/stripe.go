package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/she-travels/payments/internal/domain"
	"github.com/she-travels/payments/internal/logging"
	"github.com/she-travels/payments/internal/metrics"
)

type ClientConfig struct {
	SecretKey string
	// APIURL overrides the Stripe API endpoint, e.g. for stripe-mock.
	APIURL  string
	Timeout time.Duration
}

// Client creates payment objects on Stripe.
type Client struct {
	api *client.API
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	// GetBackendWithConfig fills in a default URL on the config it is given,
	// so each backend needs its own. Retries are left to the caller.
	backendCfg := func(url string) *stripe.BackendConfig {
		c := &stripe.BackendConfig{
			HTTPClient:        httpClient,
			LeveledLogger:     slogLeveledLogger{},
			MaxNetworkRetries: stripe.Int64(0),
		}
		if url != "" {
			c.URL = stripe.String(url)
		}
		return c
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg(cfg.APIURL)),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg(cfg.APIURL)),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg(cfg.APIURL)),
	}
	return &Client{api: client.New(cfg.SecretKey, backends)}
}

type CheckoutSessionRequest struct {
	Amount         int64
	Currency       string
	CustomerEmail  string
	ProductName    string
	Description    string
	Metadata       map[string]string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PaymentIntentRequest struct {
	Amount         int64
	Currency       string
	ReceiptEmail   string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// CreateCheckoutSession creates a hosted, redirectable payment page. The
// metadata is copied onto the underlying payment intent as well so that
// payment_intent.* events can be correlated with the booking.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	log := logging.FromContext(ctx)

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description: stripe.String(req.Description),
			Metadata:    req.Metadata,
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	start := time.Now()
	log.Info("provider request sent", "provider", "stripe", "operation", "checkout_session.create")

	sess, err := c.api.CheckoutSessions.New(params)
	metrics.ObserveProviderCall("checkout_session.create", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("CreateCheckoutSession: %w: %w", domain.ErrProvider, err)
	}

	log.Info("provider response received",
		"operation", "checkout_session.create",
		"session_id", sess.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CreatePaymentIntent creates a payment intent for direct, in-app capture.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	log := logging.FromContext(ctx)

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	start := time.Now()
	log.Info("provider request sent", "provider", "stripe", "operation", "payment_intent.create")

	pi, err := c.api.PaymentIntents.New(params)
	metrics.ObserveProviderCall("payment_intent.create", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("CreatePaymentIntent: %w: %w", domain.ErrProvider, err)
	}

	log.Info("provider response received",
		"operation", "payment_intent.create",
		"payment_intent_id", pi.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
