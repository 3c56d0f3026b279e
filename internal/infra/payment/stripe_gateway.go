package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"course-booking-platform/internal/config"
	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*StripeGateway)(nil)

// StripeGateway drives hosted Checkout sessions. The course being bought is
// priced inline so no Price objects have to exist upstream.
type StripeGateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string

	createSession   func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	retrieveSession func(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewStripeGateway(cfg *config.StripeConfig) *StripeGateway {
	stripe.Key = cfg.APIKey
	return &StripeGateway{
		webhookSecret:   cfg.WebhookSecret,
		successURL:      cfg.SuccessURL,
		cancelURL:       cfg.CancelURL,
		createSession:   checkoutsession.New,
		retrieveSession: checkoutsession.Get,
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateSession(ctx context.Context, in adapter.CheckoutInput) (adapter.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(in.Currency),
					UnitAmount: stripe.Int64(in.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(in.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: in.Metadata,
	}
	params.Context = ctx

	session, err := g.createSession(params)
	if err != nil {
		return adapter.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	if session == nil || strings.TrimSpace(session.URL) == "" {
		return adapter.CheckoutSession{}, fmt.Errorf("create checkout session: %w", domain.ErrOperationFailed)
	}
	return adapter.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, id string) (adapter.SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.retrieveSession(id, params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.HTTPStatusCode == 404 {
			return adapter.SessionStatus{}, domain.ErrNotFound
		}
		return adapter.SessionStatus{}, fmt.Errorf("retrieve checkout session: %w", err)
	}

	status := adapter.SessionStatus{
		ID:       session.ID,
		State:    adapter.SessionState(session.Status),
		Payment:  adapter.PaymentState(session.PaymentStatus),
		URL:      session.URL,
		Metadata: session.Metadata,
	}
	if session.PaymentIntent != nil {
		status.IntentID = session.PaymentIntent.ID
	}
	return status, nil
}

// sessionEvent is the slice of a checkout.session event this platform reads.
type sessionEvent struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (adapter.CheckoutEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return adapter.CheckoutEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidWebhookPayload, err)
	}

	var kind adapter.CheckoutEventType
	switch event.Type {
	case "checkout.session.completed":
		kind = adapter.EventCheckoutCompleted
	case "checkout.session.expired":
		kind = adapter.EventCheckoutExpired
	case "checkout.session.async_payment_failed":
		kind = adapter.EventPaymentFailed
	default:
		return adapter.CheckoutEvent{ID: event.ID, Type: adapter.EventIgnored}, nil
	}

	var session sessionEvent
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return adapter.CheckoutEvent{}, fmt.Errorf("%w: decode checkout.session: %v", domain.ErrInvalidWebhookPayload, err)
	}

	return adapter.CheckoutEvent{
		ID:        event.ID,
		Type:      kind,
		SessionID: session.ID,
		IntentID:  session.PaymentIntent,
		Metadata:  session.Metadata,
	}, nil
}
