package repository

import (
	"context"

	"course-booking-platform/internal/domain/model"
)

type EnrollmentRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Enrollment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Enrollment, error)
	// FindCurrentByUserAndCourse returns the latest non-cancelled enrollment
	// for the pair, or ErrNotFound. Cancelled rows never block a new purchase.
	FindCurrentByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (*model.Enrollment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.EnrollmentStatus) error
	Delete(ctx context.Context, tx Tx, id string) error
}
