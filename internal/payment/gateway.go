package payment

// CheckoutInput describes the single line item of a tour checkout.
type CheckoutInput struct {
	TourID        string
	TourName      string
	Summary       string
	ImageURL      string
	AmountCents   int64 // minor currency units
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// Session is the processor-issued descriptor of an intended payment.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutEvent is a verified webhook event. Completed is true only for
// a recognized checkout-completed event; other event types verify but
// carry no booking data.
type CheckoutEvent struct {
	EventID       string
	SessionID     string
	TourRef       string
	CustomerEmail string
	AmountTotal   int64 // minor currency units
	Completed     bool
}

// Gateway is the narrow payment-processor contract the booking flow
// depends on. The stripe implementation is constructed at startup and
// injected; tests substitute a fake.
type Gateway interface {
	CreateCheckoutSession(in CheckoutInput) (*Session, error)
	ParseEvent(payload []byte, signature string) (*CheckoutEvent, error)
}
