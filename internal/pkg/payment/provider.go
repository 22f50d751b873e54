package payment

import (
	"context"
	"errors"
)

// Provider constants
const (
	ProviderStripe = "stripe"
)

// Standardized event types
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
)

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrNotConfigured    = errors.New("payment provider not configured")
)

// PaymentProvider is the boundary to the external payment processor
type PaymentProvider interface {
	// CreatePayment creates a payment the client completes out-of-band
	CreatePayment(ctx context.Context, req ProviderPaymentRequest) (*ProviderPaymentResponse, error)

	// ParseWebhook verifies the signature and returns the standardized event.
	// Verification failures wrap ErrInvalidSignature.
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)

	// Name returns the provider identifier
	Name() string
}

// ProviderPaymentRequest is a standardized payment creation request
type ProviderPaymentRequest struct {
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// ProviderPaymentResponse is a standardized payment creation response
type ProviderPaymentResponse struct {
	PaymentID    string
	ClientSecret string
}

// WebhookEvent is a standardized webhook event
type WebhookEvent struct {
	Provider    string
	EventID     string
	EventType   string
	PaymentID   string
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}
