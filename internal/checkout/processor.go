// Package checkout forwards carts to the external payment processor and
// returns the hosted payment page URL. Retries and consistency are the
// processor's concern.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// LineItem is one cart entry as sent to the processor.
type LineItem struct {
	ItemID   string
	Quantity int64
}

// Processor creates a hosted payment session for a cart.
type Processor interface {
	CreateSession(ctx context.Context, items []LineItem) (string, error)
}

// ErrNoSessionURL is returned when the processor answers without a redirect URL.
var ErrNoSessionURL = errors.New("payment session has no url")

// StripeProcessor creates Stripe Checkout sessions in payment mode. Each item
// ID is a Stripe Price ID.
type StripeProcessor struct {
	sessions   *session.Client
	successURL string
	cancelURL  string
}

// StripeOption customizes a StripeProcessor.
type StripeOption func(*session.Client)

// WithBackend replaces the Stripe API backend, e.g. to point at a stub server.
func WithBackend(b stripe.Backend) StripeOption {
	return func(c *session.Client) { c.B = b }
}

// NewStripeProcessor builds a processor with its own API key; it does not
// touch the package-level stripe.Key.
func NewStripeProcessor(apiKey, successURL, cancelURL string, opts ...StripeOption) *StripeProcessor {
	client := &session.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: apiKey,
	}
	for _, opt := range opts {
		opt(client)
	}
	return &StripeProcessor{
		sessions:   client,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (p *StripeProcessor) CreateSession(ctx context.Context, items []LineItem) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
		LineItems:  make([]*stripe.CheckoutSessionLineItemParams, 0, len(items)),
	}
	params.Context = ctx

	for _, item := range items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.ItemID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	s, err := p.sessions.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			return "", fmt.Errorf("stripe %s (status %d): %w", stripeErr.Type, stripeErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	if s.URL == "" {
		return "", ErrNoSessionURL
	}

	return s.URL, nil
}
