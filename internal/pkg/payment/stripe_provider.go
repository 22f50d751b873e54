package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

// intentCreator is satisfied by *paymentintent.Client
type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeConfig holds Stripe credentials
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// StripeProvider implements PaymentProvider on Stripe PaymentIntents
type StripeProvider struct {
	intents       intentCreator
	webhookSecret string
}

// NewStripeProvider creates a Stripe provider using the default API backend
func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	return &StripeProvider{
		intents: &paymentintent.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
	}
}

// Name implements PaymentProvider
func (p *StripeProvider) Name() string { return ProviderStripe }

// CreatePayment creates a PaymentIntent and returns its client secret
func (p *StripeProvider) CreatePayment(ctx context.Context, req ProviderPaymentRequest) (*ProviderPaymentResponse, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}

	return &ProviderPaymentResponse{
		PaymentID:    pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if p.webhookSecret == "" {
		return nil, ErrNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{
		Provider:  ProviderStripe,
		EventID:   event.ID,
		EventType: string(event.Type),
	}
	if out.EventType != EventPaymentSucceeded {
		return out, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, ErrMalformedEvent
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if pi.ID == "" {
		return nil, ErrMalformedEvent
	}

	out.PaymentID = pi.ID
	out.AmountCents = pi.Amount
	out.Currency = string(pi.Currency)
	out.Metadata = pi.Metadata
	return out, nil
}
