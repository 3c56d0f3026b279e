package model

import (
	"time"

	"course-booking-platform/internal/domain"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "PENDING"
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
)

// Enrollment ties a user to a course. At most one non-cancelled enrollment
// may exist per (user, course) pair; the orchestrator is its only writer.
type Enrollment struct {
	ID        string
	UserID    string
	CourseID  string
	Status    EnrollmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPendingEnrollment creates the row inserted alongside a pending payment
// when a checkout session is opened.
func NewPendingEnrollment(userID, courseID string) (*Enrollment, error) {
	if userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Enrollment{
		ID:        uuid.NewString(),
		UserID:    userID,
		CourseID:  courseID,
		Status:    EnrollmentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsSettled reports whether the enrollment already grants (or granted) access,
// which blocks a new purchase for the pair.
func (e *Enrollment) IsSettled() bool {
	return e != nil && (e.Status == EnrollmentStatusActive || e.Status == EnrollmentStatusCompleted)
}
