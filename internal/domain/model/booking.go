package model

import (
	"time"

	"course-booking-platform/internal/domain"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a session reserved by a user with a booking professional.
// Only ownership checks care about it in this service.
type Booking struct {
	ID             string
	UserID         string
	ProfessionalID string
	StartAt        time.Time
	EndAt          time.Time
	Status         BookingStatus
	CreatedAt      time.Time
}

func NewBooking(id, userID, professionalID string, startAt, endAt time.Time) (*Booking, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if userID == "" || professionalID == "" || !endAt.After(startAt) {
		return nil, domain.ErrInvalidArgument
	}
	return &Booking{
		ID:             id,
		UserID:         userID,
		ProfessionalID: professionalID,
		StartAt:        startAt,
		EndAt:          endAt,
		Status:         BookingStatusRequested,
		CreatedAt:      time.Now(),
	}, nil
}
