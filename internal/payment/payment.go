// Package payment charges customers through the external payment processor.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atinyakov/storefront/internal/apperr"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/charge"
)

// ChargeRequest describes a single card charge.
type ChargeRequest struct {
	// Amount is in minor currency units.
	Amount      int64
	Currency    string
	Token       string
	Description string
}

// Charge is the processor's confirmation of a successful charge.
type Charge struct {
	ID     string
	Amount int64
}

// Gateway performs charges.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

// StripeGateway implements Gateway with the Stripe charges API.
type StripeGateway struct {
	client charge.Client
}

// NewStripeGateway creates a gateway using secret. An empty baseURL selects
// the public Stripe API.
func NewStripeGateway(secret, baseURL string) *StripeGateway {
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 30 * time.Second},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if baseURL != "" {
		cfg.URL = stripe.String(baseURL)
	}
	return &StripeGateway{
		client: charge.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Key: secret,
		},
	}
}

// Charge creates a charge for req. Any processor or transport failure is
// returned as an apperr.PaymentError.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	if req.Amount <= 0 {
		return nil, apperr.Validation("charge amount must be positive")
	}
	if req.Token == "" {
		return nil, apperr.Validation("payment token is required")
	}

	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	if err := params.SetSource(req.Token); err != nil {
		return nil, apperr.Validation("invalid payment token: %v", err)
	}

	ch, err := g.client.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
			return nil, apperr.Payment(err, "payment failed: %s", stripeErr.Msg)
		}
		return nil, apperr.Payment(err, "payment failed: %v", err)
	}
	if ch.Amount <= 0 {
		return nil, apperr.Payment(fmt.Errorf("charge %s has no amount", ch.ID), "payment failed: empty charge")
	}
	return &Charge{ID: ch.ID, Amount: ch.Amount}, nil
}
