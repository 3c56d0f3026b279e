package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/repository"
	"course-booking-platform/internal/infra/metrics"
	"course-booking-platform/internal/usecase"
)

// OwnedResource names a resource type the ownership stage knows how to
// resolve. Anything else fails closed.
type OwnedResource string

const (
	OwnBooking      OwnedResource = "booking"
	OwnSubscription OwnedResource = "subscription"
	OwnPayment      OwnedResource = "payment"
	OwnCourse       OwnedResource = "course"
)

// RouteGuard declares what a route demands. Stages run in a fixed order:
// authentication, role, feature, tier, subscription, ownership. The first
// failing stage decides the error; later stages are not evaluated.
type RouteGuard struct {
	Roles               []model.Role // any of these
	Feature             model.Feature
	Tier                model.Tier
	RequireSubscription bool
	Own                 OwnedResource // resolved from the URL id parameter
	OwnParam            string        // chi URL parameter name, defaults to "id"
}

// Guard evaluates RouteGuards against the request principal. Admins pass
// every stage after authentication.
type Guard struct {
	entitlements usecase.EntitlementUseCase
	subs         usecase.SubscriptionUseCase
	bookings     repository.BookingRepository
	subsRepo     repository.SubscriptionRepository
	payments     repository.PaymentRepository
	courses      repository.CourseRepository
}

func NewGuard(
	entitlements usecase.EntitlementUseCase,
	subs usecase.SubscriptionUseCase,
	bookings repository.BookingRepository,
	subsRepo repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	courses repository.CourseRepository,
) *Guard {
	return &Guard{
		entitlements: entitlements,
		subs:         subs,
		bookings:     bookings,
		subsRepo:     subsRepo,
		payments:     payments,
		courses:      courses,
	}
}

// Require wraps a handler with the guard chain for one route.
func (g *Guard) Require(guard RouteGuard) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := g.check(r, guard); err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) check(r *http.Request, guard RouteGuard) (model.Principal, error) {
	ctx := r.Context()

	p, ok := PrincipalFrom(ctx)
	if !ok {
		metrics.IncGuardDenial("auth")
		return model.Principal{}, domain.ErrUnauthenticated
	}
	if p.IsAdmin() {
		return p, nil
	}

	if len(guard.Roles) > 0 && !hasAnyRole(p, guard.Roles) {
		metrics.IncGuardDenial("role")
		return p, domain.ErrMissingRole
	}

	if guard.Feature != "" && !g.entitlements.HasFeature(ctx, p, guard.Feature) {
		metrics.IncGuardDenial("feature")
		return p, domain.ErrMissingFeature
	}

	if guard.Tier != "" {
		plan, err := g.subs.ActivePlan(ctx, p.UserID)
		if err != nil || !plan.UnlocksTier(guard.Tier) {
			metrics.IncGuardDenial("tier")
			return p, domain.ErrMissingTier
		}
	}

	if guard.RequireSubscription && !p.HasRole(model.RoleInstructorAdmin) {
		if _, err := g.subs.GetActive(ctx, p.UserID); err != nil {
			metrics.IncGuardDenial("subscription")
			return p, domain.ErrSubscriptionRequired
		}
	}

	if guard.Own != "" {
		param := guard.OwnParam
		if param == "" {
			param = "id"
		}
		id := chi.URLParam(r, param)
		if err := g.checkOwnership(ctx, p, guard.Own, id); err != nil {
			metrics.IncGuardDenial("ownership")
			return p, err
		}
	}

	return p, nil
}

func hasAnyRole(p model.Principal, roles []model.Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

// checkOwnership resolves the resource owner and compares. A missing resource
// surfaces ErrNotFound; an unrecognized resource type denies access.
func (g *Guard) checkOwnership(ctx context.Context, p model.Principal, kind OwnedResource, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	switch kind {
	case OwnBooking:
		b, err := g.bookings.FindByID(ctx, nil, id)
		if err != nil {
			return err
		}
		if b.UserID != p.UserID && b.ProfessionalID != p.UserID {
			return domain.ErrNotOwner
		}
	case OwnSubscription:
		s, err := g.subsRepo.FindByID(ctx, nil, id)
		if err != nil {
			return err
		}
		if s.UserID != p.UserID {
			return domain.ErrNotOwner
		}
	case OwnPayment:
		pay, err := g.payments.FindBySessionID(ctx, nil, id)
		if err != nil {
			return err
		}
		if pay.UserID != p.UserID {
			return domain.ErrNotOwner
		}
	case OwnCourse:
		c, err := g.courses.FindByID(ctx, nil, id)
		if err != nil {
			return err
		}
		if c.InstructorID != p.UserID {
			return domain.ErrNotOwner
		}
	default:
		return domain.ErrNotOwner
	}
	return nil
}
