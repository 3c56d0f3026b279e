package model

import (
	"time"

	"course-booking-platform/internal/domain"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"   // checkout session opened, awaiting provider outcome
	PaymentStatusSucceeded         PaymentStatus = "SUCCEEDED" // provider confirmed the charge
	PaymentStatusFailed            PaymentStatus = "FAILED"    // charge failed; session may still be retried
	PaymentStatusCanceled          PaymentStatus = "CANCELED"  // session expired or was abandoned
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

type ReferenceType string

const (
	ReferenceCourseEnrollment ReferenceType = "COURSE_ENROLLMENT"
	ReferenceSubscription     ReferenceType = "SUBSCRIPTION"
)

// Payment records one checkout attempt against an external provider.
// A retried checkout after an expired session replaces the record rather than
// accumulating; SessionID correlates it to the provider-hosted resource.
type Payment struct {
	ID            string
	UserID        string
	ReferenceID   string // enrollment or subscription id
	ReferenceType ReferenceType
	Amount        int64 // minor units
	Currency      string
	Status        PaymentStatus
	SessionID     string // provider checkout session id
	IntentID      string // provider payment intent id, set on success
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PaidAt        *time.Time
}

// NewPendingPayment creates the payment row inserted in the same transaction
// as its pending enrollment.
func NewPendingPayment(userID, referenceID string, refType ReferenceType, amount int64, currency, sessionID string) (*Payment, error) {
	if userID == "" || referenceID == "" || sessionID == "" || amount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Payment{
		ID:            uuid.NewString(),
		UserID:        userID,
		ReferenceID:   referenceID,
		ReferenceType: refType,
		Amount:        amount,
		Currency:      currency,
		Status:        PaymentStatusPending,
		SessionID:     sessionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
