package reconcile

type OutcomeKind int

const (
	Applied OutcomeKind = iota
	Dropped
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Applied:
		return "applied"
	case Dropped:
		return "dropped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of reconciling one provider event. Dropped events are
// acknowledged to the provider without a state change; Failed events are
// rejected so the provider redelivers them.
type Outcome struct {
	Kind      OutcomeKind
	BookingID string
	Reason    string
	Err       error
}

// Drop reasons.
const (
	ReasonMissingCorrelation = "booking id missing from event metadata"
	ReasonBookingNotFound    = "booking not found"
	ReasonNoPaymentIntent    = "charge has no payment intent"
	ReasonStaleEvent         = "stale event"
	ReasonUnhandledType      = "unhandled event type"
	ReasonUnchanged          = "already applied"
)

func applied(bookingID string) Outcome {
	return Outcome{Kind: Applied, BookingID: bookingID}
}

func dropped(bookingID, reason string) Outcome {
	return Outcome{Kind: Dropped, BookingID: bookingID, Reason: reason}
}

func failed(bookingID string, err error) Outcome {
	return Outcome{Kind: Failed, BookingID: bookingID, Err: err}
}
