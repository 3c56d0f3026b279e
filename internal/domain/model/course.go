package model

import (
	"time"

	"course-booking-platform/internal/domain"

	"github.com/google/uuid"
)

// Course is a purchasable catalog item. PriceCents is the current checkout
// price in minor units; sessions are always priced from it at initiate time.
type Course struct {
	ID           string
	Title        string
	InstructorID string
	PriceCents   int64
	Currency     string
	Published    bool
	CreatedAt    time.Time
}

func NewCourse(id, title, instructorID string, priceCents int64, currency string) (*Course, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if title == "" || instructorID == "" || priceCents < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if currency == "" {
		currency = "usd"
	}
	return &Course{
		ID:           id,
		Title:        title,
		InstructorID: instructorID,
		PriceCents:   priceCents,
		Currency:     currency,
		Published:    true,
		CreatedAt:    time.Now(),
	}, nil
}

func (c *Course) IsZero() bool { return c == nil || c.ID == "" }
