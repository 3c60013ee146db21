package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Statuses reported by GetSessionStatus besides the raw payment intent
// statuses of the gateway.
const (
	StatusSucceeded  = "succeeded"
	StatusProcessing = "processing"
	StatusFailed     = "payment_failed"
)

type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type Session struct {
	ID  string
	URL string
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type StripeGateway struct {
	sc       *client.API
	currency string
}

// NewStripeGateway builds a gateway for the hosted checkout API. backends
// may be nil to talk to the public Stripe endpoints.
func NewStripeGateway(secretKey, currency string, backends *stripe.Backends) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &StripeGateway{sc: sc, currency: currency}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, items []LineItem, successURL, failURL string) (*Session, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("stripe: no line items")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(failURL),
	}
	params.Context = ctx

	for _, it := range items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Name),
				},
				UnitAmount: stripe.Int64(MinorUnits(it.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(it.Quantity)),
		})
	}

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// GetSessionStatus returns the status of the payment intent behind the
// session, or StatusFailed when the session never produced one.
func (g *StripeGateway) GetSessionStatus(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := g.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("stripe: get checkout session: %w", err)
	}
	if s.PaymentIntent == nil || s.PaymentIntent.ID == "" {
		return StatusFailed, nil
	}
	if s.PaymentIntent.Status != "" {
		return string(s.PaymentIntent.Status), nil
	}

	piParams := &stripe.PaymentIntentParams{}
	piParams.Context = ctx
	pi, err := g.sc.PaymentIntents.Get(s.PaymentIntent.ID, piParams)
	if err != nil {
		return "", fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return string(pi.Status), nil
}
