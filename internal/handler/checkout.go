package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/she-travels/payments/internal/config"
	"github.com/she-travels/payments/internal/logging"
	"github.com/she-travels/payments/internal/service/checkout"
)

type originatorService interface {
	CreateCheckoutSession(ctx context.Context, req checkout.Request, redirectBase string) (*checkout.CheckoutResult, error)
	CreatePaymentIntent(ctx context.Context, req checkout.Request) (*checkout.PaymentIntentResult, error)
}

type CheckoutHandler struct {
	originators originatorService
	config      *config.Config
}

func NewCheckoutHandler(originators originatorService, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{originators: originators, config: cfg}
}

// Stripe rejects amounts above eight digits in minor units.
var maxAmount = decimal.NewFromInt(99_999_999)

var currencyPattern = regexp.MustCompile(`^[a-z]{3}$`)

type createPaymentRequest struct {
	Amount    *decimal.Decimal  `json:"amount"`
	Currency  string            `json:"currency"`
	BookingID string            `json:"bookingId"`
	UserID    string            `json:"userId"`
	UserEmail string            `json:"userEmail"`
	EventName string            `json:"eventName"`
	Metadata  map[string]string `json:"metadata"`
}

func (r *createPaymentRequest) normalize(defaultCurrency string) {
	r.Currency = strings.ToLower(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = defaultCurrency
	}
	r.BookingID = strings.TrimSpace(r.BookingID)
	r.UserID = strings.TrimSpace(r.UserID)
	r.EventName = strings.TrimSpace(r.EventName)
	r.UserEmail = strings.TrimSpace(r.UserEmail)
}

func (r createPaymentRequest) Validate() []FieldError {
	var errs []FieldError

	switch {
	case r.Amount == nil:
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	case !r.Amount.IsPositive():
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	case !r.Amount.IsInteger():
		errs = append(errs, FieldError{Field: "amount", Message: "must be a whole number of minor units"})
	case r.Amount.GreaterThan(maxAmount):
		errs = append(errs, FieldError{Field: "amount", Message: "must not exceed " + maxAmount.String()})
	}

	if !currencyPattern.MatchString(r.Currency) {
		errs = append(errs, FieldError{Field: "currency", Message: "must be a three-letter ISO code"})
	}

	if r.BookingID == "" {
		errs = append(errs, FieldError{Field: "bookingId", Message: "required"})
	}

	if r.UserID == "" {
		errs = append(errs, FieldError{Field: "userId", Message: "required"})
	}

	if r.EventName == "" {
		errs = append(errs, FieldError{Field: "eventName", Message: "required"})
	}

	return errs
}

func (r createPaymentRequest) toServiceRequest() checkout.Request {
	return checkout.Request{
		BookingID: r.BookingID,
		UserID:    r.UserID,
		UserEmail: r.UserEmail,
		EventName: r.EventName,
		Amount:    r.Amount.IntPart(),
		Currency:  r.Currency,
		Metadata:  r.Metadata,
	}
}

type checkoutSessionResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
	SessionID   string `json:"sessionId"`
}

type paymentIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func (h *CheckoutHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.originators.CreateCheckoutSession(r.Context(), req.toServiceRequest(), h.redirectBase(r))
	if err != nil {
		logging.FromContext(r.Context()).Warn("checkout session request failed", "booking_id", req.BookingID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, checkoutSessionResponse{CheckoutURL: res.CheckoutURL, SessionID: res.SessionID})
}

func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.originators.CreatePaymentIntent(r.Context(), req.toServiceRequest())
	if err != nil {
		logging.FromContext(r.Context()).Warn("payment intent request failed", "booking_id", req.BookingID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, paymentIntentResponse{ClientSecret: res.ClientSecret, PaymentIntentID: res.PaymentIntentID})
}

// decode enforces POST and writes the error response itself when the body is
// unusable.
func (h *CheckoutHandler) decode(w http.ResponseWriter, r *http.Request) (createPaymentRequest, bool) {
	var req createPaymentRequest

	if r.Method != http.MethodPost {
		RespondMethodNotAllowed(w, http.MethodPost)
		return req, false
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return req, false
	}

	req.normalize(h.config.DefaultCurrency)
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return req, false
	}
	return req, true
}

// redirectBase prefers the caller's Origin so the payer lands back on the
// site they started from.
func (h *CheckoutHandler) redirectBase(r *http.Request) string {
	origin := strings.TrimRight(r.Header.Get("Origin"), "/")
	isHTTP := strings.HasPrefix(origin, "https://") || strings.HasPrefix(origin, "http://")
	if isHTTP && h.config.OriginAllowed(origin) {
		return origin
	}
	return h.config.RedirectBaseURL
}
