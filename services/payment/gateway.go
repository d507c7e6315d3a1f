package payment

import (
	"context"
	"fmt"

	"innkeeper/config"
	"innkeeper/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// SessionRequest describes a hosted checkout session to open with the
// processor. AmountMinor is the total in the currency's minor units.
type SessionRequest struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	Description string
}

// CheckoutGateway opens hosted payment sessions with the external
// processor. Kept behind an interface so the ledger logic stays testable
// without network calls.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*models.CheckoutSession, error)
}

// StripeGateway implements CheckoutGateway against Stripe Checkout.
type StripeGateway struct{}

// NewStripeGateway constructs a StripeGateway. The package-level stripe key
// must already be set (main does this at startup).
func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

// CreateSession opens a Stripe Checkout session for the order. The order id
// is attached as metadata on both the session and its payment intent so the
// webhook reconciler can route settlement events back to the order.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"order_id": req.OrderID},
		},
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(config.AppConfig.SuccessURL),
		CancelURL:  stripe.String(config.AppConfig.CancelURL),
	}
	params.AddMetadata("order_id", req.OrderID)
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session creation failed: %w", err)
	}
	return &models.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
