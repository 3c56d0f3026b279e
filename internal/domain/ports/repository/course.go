package repository

import (
	"context"

	"course-booking-platform/internal/domain/model"
)

type CourseRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Course) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
}

type BookingRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Booking) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Booking, error)
}
