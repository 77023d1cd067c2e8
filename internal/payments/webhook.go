package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// Webhook event types the storefront reacts to. Other event types verify
// successfully but carry no session or intent hints.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventCheckoutSessionExpired   = "checkout.session.expired"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
	EventPaymentIntentFailed      = "payment_intent.payment_failed"
)

// ErrInvalidWebhookSignature is returned when the payload signature does not verify.
var ErrInvalidWebhookSignature = errors.New("payments: invalid webhook signature")

// WebhookEvent is the normalised view of a verified PSP webhook delivery.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
	IntentID  string
	Status    Status
}

// StripeWebhookVerifier validates Stripe webhook signatures and extracts the
// fields payment reconciliation needs.
type StripeWebhookVerifier struct {
	secret string
}

// NewStripeWebhookVerifier constructs a verifier for the given endpoint secret.
func NewStripeWebhookVerifier(secret string) (*StripeWebhookVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	return &StripeWebhookVerifier{secret: secret}, nil
}

// Verify checks the Stripe-Signature header against the raw payload and
// returns the normalised event.
func (v *StripeWebhookVerifier) Verify(payload []byte, signature string) (WebhookEvent, error) {
	if v == nil {
		return WebhookEvent{}, errors.New("stripe: verifier is nil")
	}
	// Stripe delivers events pinned to the endpoint's configured API version,
	// which may trail the SDK's pinned version.
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhookSignature, err)
	}

	normalised := WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch normalised.Type {
	case EventCheckoutSessionCompleted, EventCheckoutSessionExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return WebhookEvent{}, fmt.Errorf("stripe: decode checkout session event: %w", err)
		}
		normalised.SessionID = session.ID
		if session.PaymentIntent != nil {
			normalised.IntentID = session.PaymentIntent.ID
		}
		switch {
		case session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
			normalised.Status = StatusSucceeded
		case normalised.Type == EventCheckoutSessionExpired:
			normalised.Status = StatusFailed
		default:
			normalised.Status = StatusPending
		}
	case EventPaymentIntentSucceeded, EventPaymentIntentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return WebhookEvent{}, fmt.Errorf("stripe: decode payment intent event: %w", err)
		}
		normalised.IntentID = intent.ID
		if normalised.Type == EventPaymentIntentSucceeded {
			normalised.Status = StatusSucceeded
		} else {
			normalised.Status = StatusFailed
		}
	}

	return normalised, nil
}
