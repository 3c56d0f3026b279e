package usecase

import (
	"context"

	"github.com/google/uuid"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ CourseUseCase = (*courseUC)(nil)

type CourseUseCase interface {
	// Create publishes a new course owned by the instructor. The caller must
	// already hold the course-creation feature; this layer only validates.
	Create(ctx context.Context, instructorID, title string, priceCents int64, currency string) (*model.Course, error)
	// Update edits the title and price of an existing course. Ownership is
	// checked by the route guard before this runs.
	Update(ctx context.Context, id, title string, priceCents int64) (*model.Course, error)
	Get(ctx context.Context, id string) (*model.Course, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
}

type courseUC struct {
	courses  repository.CourseRepository
	bookings repository.BookingRepository
}

func NewCourseUseCase(courses repository.CourseRepository, bookings repository.BookingRepository) *courseUC {
	return &courseUC{courses: courses, bookings: bookings}
}

func (u *courseUC) Create(ctx context.Context, instructorID, title string, priceCents int64, currency string) (*model.Course, error) {
	course, err := model.NewCourse(uuid.NewString(), title, instructorID, priceCents, currency)
	if err != nil {
		return nil, err
	}
	course.Published = true
	if err := u.courses.Save(ctx, nil, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (u *courseUC) Update(ctx context.Context, id, title string, priceCents int64) (*model.Course, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	course, err := u.courses.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if title != "" {
		course.Title = title
	}
	if priceCents > 0 {
		course.PriceCents = priceCents
	}
	if err := u.courses.Save(ctx, nil, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (u *courseUC) Get(ctx context.Context, id string) (*model.Course, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.courses.FindByID(ctx, nil, id)
}

func (u *courseUC) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.bookings.FindByID(ctx, nil, id)
}
