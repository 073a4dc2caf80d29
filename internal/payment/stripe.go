package payment

import (
	"encoding/json"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/mariofilbert/natours-api/internal/apperror"
)

// StripeGateway implements Gateway against the Stripe API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCheckoutSession(in CheckoutInput) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		CustomerEmail:      stripe.String(in.CustomerEmail),
		ClientReferenceID:  stripe.String(in.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(in.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(in.TourName),
						Description: stripe.String(in.Summary),
						Images:      stripe.StringSlice([]string{in.ImageURL}),
					},
				},
			},
		},
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to create checkout session", err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// ParseEvent verifies the event signature against the raw request body
// and extracts checkout-completion data. Verification failure yields an
// InvalidSignature error and no side effects.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*CheckoutEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidSignature, "webhook signature verification failed", err)
	}

	if event.Type != "checkout.session.completed" {
		return &CheckoutEvent{EventID: event.ID}, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to decode checkout session", err)
	}

	return &CheckoutEvent{
		EventID:       event.ID,
		SessionID:     sess.ID,
		TourRef:       sess.ClientReferenceID,
		CustomerEmail: sess.CustomerEmail,
		AmountTotal:   sess.AmountTotal,
		Completed:     true,
	}, nil
}
