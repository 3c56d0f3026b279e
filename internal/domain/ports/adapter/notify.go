package adapter

import "context"

type NotificationKind string

const (
	NotifyPurchaseInitiated NotificationKind = "purchase_initiated"
	NotifyEnrollmentActive  NotificationKind = "enrollment_active"
)

// NotificationSender is fire-and-forget from the orchestrator's perspective:
// a send failure is logged and never fails the surrounding operation.
type NotificationSender interface {
	Send(ctx context.Context, kind NotificationKind, recipient string, payload map[string]string) error
}
