package adapter

import "context"

// SessionState mirrors the provider's checkout session lifecycle.
type SessionState string

const (
	SessionOpen     SessionState = "open"
	SessionComplete SessionState = "complete"
	SessionExpired  SessionState = "expired"
)

// PaymentState is the provider's view of whether the session was paid.
type PaymentState string

const (
	PaymentPaid   PaymentState = "paid"
	PaymentUnpaid PaymentState = "unpaid"
)

type CheckoutEventType string

const (
	EventCheckoutCompleted CheckoutEventType = "checkout.completed"
	EventCheckoutExpired   CheckoutEventType = "checkout.expired"
	EventPaymentFailed     CheckoutEventType = "payment_failed"
	EventIgnored           CheckoutEventType = ""
)

// CheckoutInput describes the session to open with the provider.
type CheckoutInput struct {
	Amount      int64 // minor units
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
	// Metadata carries the correlation pair {user_id, course_id} so inbound
	// events can be matched back to local records.
	Metadata map[string]string
}

// CheckoutSession is the provider-hosted payment resource.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionStatus is the provider's current view of a session. URL is only set
// while the session is still open. Metadata echoes the correlation pair the
// session was opened with.
type SessionStatus struct {
	ID       string
	State    SessionState
	Payment  PaymentState
	IntentID string
	URL      string
	Metadata map[string]string
}

// CheckoutEvent is a verified, provider-neutral webhook event.
type CheckoutEvent struct {
	ID        string
	Type      CheckoutEventType
	SessionID string
	IntentID  string
	Metadata  map[string]string
}

// CheckoutGateway is the port for the external payment provider.
type CheckoutGateway interface {
	Name() string
	CreateSession(ctx context.Context, in CheckoutInput) (CheckoutSession, error)
	// RetrieveSession returns ErrNotFound when the provider no longer knows
	// the session; callers treat that the same as expired.
	RetrieveSession(ctx context.Context, id string) (SessionStatus, error)
	// VerifyWebhook authenticates a raw payload + signature header and maps it
	// to a CheckoutEvent. Events the platform does not handle come back with
	// Type EventIgnored and a nil error.
	VerifyWebhook(payload []byte, signature string) (CheckoutEvent, error)
}
