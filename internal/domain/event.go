package domain

// EventType is the provider's event type tag.
type EventType string

const (
	EventTypeCheckoutSessionCompleted EventType = "checkout.session.completed"
	EventTypePaymentIntentSucceeded   EventType = "payment_intent.succeeded"
	EventTypePaymentIntentFailed      EventType = "payment_intent.payment_failed"
	EventTypeChargeRefunded           EventType = "charge.refunded"
)

// Correlation is the booking context the originators embed as provider-side
// metadata. Extra holds any caller-supplied keys.
type Correlation struct {
	BookingID string
	UserID    string
	EventName string
	Extra     map[string]string
}

const (
	MetadataBookingID = "bookingId"
	MetadataUserID    = "userId"
	MetadataEventName = "eventName"
)

func CorrelationFromMetadata(md map[string]string) Correlation {
	c := Correlation{
		BookingID: md[MetadataBookingID],
		UserID:    md[MetadataUserID],
		EventName: md[MetadataEventName],
	}
	for k, v := range md {
		switch k {
		case MetadataBookingID, MetadataUserID, MetadataEventName:
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[k] = v
	}
	return c
}

// Metadata flattens the correlation back into provider metadata. The fixed
// keys win over caller-supplied extras with the same name.
func (c Correlation) Metadata() map[string]string {
	md := make(map[string]string, len(c.Extra)+3)
	for k, v := range c.Extra {
		md[k] = v
	}
	md[MetadataBookingID] = c.BookingID
	md[MetadataUserID] = c.UserID
	md[MetadataEventName] = c.EventName
	return md
}

// Event is a verified provider notification. The concrete types below are the
// only variants; anything else arrives as UnhandledEvent.
type Event interface {
	EventID() string
	Type() EventType
	isEvent()
}

type CheckoutSessionCompleted struct {
	ID              string
	SessionID       string
	PaymentIntentID string
	AmountTotal     int64
	Currency        string
	Correlation     Correlation
}

type PaymentIntentSucceeded struct {
	ID              string
	PaymentIntentID string
	Amount          int64
	Currency        string
	Correlation     Correlation
}

type PaymentIntentFailed struct {
	ID              string
	PaymentIntentID string
	FailureMessage  string
	Correlation     Correlation
}

// ChargeRefunded carries no booking id; the booking is found through the
// payment intent the charge belongs to.
type ChargeRefunded struct {
	ID              string
	ChargeID        string
	PaymentIntentID string
	AmountRefunded  int64
}

type UnhandledEvent struct {
	ID      string
	RawType string
}

func (e CheckoutSessionCompleted) EventID() string { return e.ID }
func (e PaymentIntentSucceeded) EventID() string   { return e.ID }
func (e PaymentIntentFailed) EventID() string      { return e.ID }
func (e ChargeRefunded) EventID() string           { return e.ID }
func (e UnhandledEvent) EventID() string           { return e.ID }

func (CheckoutSessionCompleted) Type() EventType { return EventTypeCheckoutSessionCompleted }
func (PaymentIntentSucceeded) Type() EventType   { return EventTypePaymentIntentSucceeded }
func (PaymentIntentFailed) Type() EventType      { return EventTypePaymentIntentFailed }
func (ChargeRefunded) Type() EventType           { return EventTypeChargeRefunded }
func (e UnhandledEvent) Type() EventType         { return EventType(e.RawType) }

func (CheckoutSessionCompleted) isEvent() {}
func (PaymentIntentSucceeded) isEvent()   {}
func (PaymentIntentFailed) isEvent()      {}
func (ChargeRefunded) isEvent()           {}
func (UnhandledEvent) isEvent()           {}
