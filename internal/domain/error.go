package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Subscription errors
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrExpiredSubscription  = errors.New("subscription has expired")

	// Access control errors, one per guard stage so callers can tell which
	// stage denied the request.
	ErrUnauthenticated      = errors.New("request is not authenticated")
	ErrMissingRole          = errors.New("user lacks a required role")
	ErrMissingFeature       = errors.New("user lacks a required feature")
	ErrMissingTier          = errors.New("subscription tier does not unlock this operation")
	ErrSubscriptionRequired = errors.New("an active subscription is required")
	ErrNotOwner             = errors.New("user does not own this resource")

	// Enrollment and payment errors
	ErrAlreadyEnrolled       = errors.New("user is already enrolled in this course")
	ErrCorrelationMismatch   = errors.New("webhook metadata does not match payment record")
	ErrInvalidWebhookPayload = errors.New("webhook payload failed verification")
)

// IsForbidden reports whether err is one of the access-control denials that
// map to HTTP 403. Unauthenticated is deliberately excluded; it maps to 401.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrMissingRole) ||
		errors.Is(err, ErrMissingFeature) ||
		errors.Is(err, ErrMissingTier) ||
		errors.Is(err, ErrSubscriptionRequired) ||
		errors.Is(err, ErrNotOwner)
}
