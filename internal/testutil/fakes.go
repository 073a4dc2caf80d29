package testutil

import (
	"sync"

	"github.com/mariofilbert/natours-api/internal/apperror"
	"github.com/mariofilbert/natours-api/internal/models"
	"github.com/mariofilbert/natours-api/internal/payment"
)

// FakeMailer records outbound mail instead of sending it. FailNext
// makes the next send return an error, for testing rollback paths.
type FakeMailer struct {
	mu       sync.Mutex
	Welcomes []string
	Resets   []string
	FailNext bool
}

func (m *FakeMailer) SendWelcome(user *models.User, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return apperror.New(apperror.KindInternal, "mail send failed")
	}
	m.Welcomes = append(m.Welcomes, user.Email)
	return nil
}

func (m *FakeMailer) SendPasswordReset(user *models.User, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return apperror.New(apperror.KindInternal, "mail send failed")
	}
	m.Resets = append(m.Resets, resetURL)
	return nil
}

// LastReset returns the most recent reset URL, or "".
func (m *FakeMailer) LastReset() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Resets) == 0 {
		return ""
	}
	return m.Resets[len(m.Resets)-1]
}

// FakeGateway substitutes the payment processor. Sessions come back
// canned; ParseEvent returns the configured event unless the signature
// does not match Signature.
type FakeGateway struct {
	Session   *payment.Session
	Event     *payment.CheckoutEvent
	Signature string

	CheckoutInputs []payment.CheckoutInput
}

func (g *FakeGateway) CreateCheckoutSession(in payment.CheckoutInput) (*payment.Session, error) {
	g.CheckoutInputs = append(g.CheckoutInputs, in)
	if g.Session != nil {
		return g.Session, nil
	}
	return &payment.Session{ID: "cs_test_fake", URL: "https://checkout.example.com/cs_test_fake"}, nil
}

func (g *FakeGateway) ParseEvent(payload []byte, signature string) (*payment.CheckoutEvent, error) {
	if g.Signature != "" && signature != g.Signature {
		return nil, apperror.New(apperror.KindInvalidSignature, "webhook signature verification failed")
	}
	if g.Event == nil {
		return &payment.CheckoutEvent{EventID: "evt_fake"}, nil
	}
	return g.Event, nil
}
