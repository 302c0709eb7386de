// Package payments wraps the Stripe refund call behind a small interface so
// the cancellation flow can be tested without the network. The client is an
// injected instance, never a lazily-initialized package global.
package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/slotwise/slotwise/pkg/logger"
)

type RefundClient interface {
	Refund(ctx context.Context, paymentIntentID string, amountCents int64) (refundID string, err error)
}

type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func (c *StripeClient) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx

	r, err := c.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe refund failed: %w", err)
	}

	logger.InfoContext(ctx, "Stripe refund issued",
		"refund_id", r.ID,
		"payment_intent", paymentIntentID,
		"amount_cents", amountCents,
	)
	return r.ID, nil
}
