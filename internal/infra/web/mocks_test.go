//go:build !integration

package web

import (
	"context"
	"sync"
	"time"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/adapter"
	"course-booking-platform/internal/domain/ports/repository"
	"course-booking-platform/internal/usecase"
)

// mockEntitlements counts lookups so guard tests can assert short-circuiting.
type mockEntitlements struct {
	mu       sync.Mutex
	hasCalls int

	HasFeatureFunc func(p model.Principal, f model.Feature) bool
}

var _ usecase.EntitlementUseCase = (*mockEntitlements)(nil)

func (m *mockEntitlements) HasFeature(ctx context.Context, p model.Principal, f model.Feature) bool {
	m.mu.Lock()
	m.hasCalls++
	m.mu.Unlock()
	if m.HasFeatureFunc != nil {
		return m.HasFeatureFunc(p, f)
	}
	return true
}

func (m *mockEntitlements) ListFeatures(ctx context.Context, p model.Principal) []model.Feature {
	return nil
}

func (m *mockEntitlements) SetRoleFeatures(ctx context.Context, role model.Role, features []model.Feature) error {
	return nil
}

func (m *mockEntitlements) Catalog(ctx context.Context) model.Catalog { return model.Catalog{} }

type mockSubscriptions struct {
	mu          sync.Mutex
	activeCalls int
	planCalls   int

	GetActiveFunc  func(userID string) (*model.UserSubscription, error)
	ActivePlanFunc func(userID string) (*model.SubscriptionPlan, error)
	GetByIDFunc    func(id string) (*model.UserSubscription, error)
}

var _ usecase.SubscriptionUseCase = (*mockSubscriptions)(nil)

func (m *mockSubscriptions) GetActive(ctx context.Context, userID string) (*model.UserSubscription, error) {
	m.mu.Lock()
	m.activeCalls++
	m.mu.Unlock()
	if m.GetActiveFunc != nil {
		return m.GetActiveFunc(userID)
	}
	return nil, domain.ErrNoActiveSubscription
}

func (m *mockSubscriptions) ActivePlan(ctx context.Context, userID string) (*model.SubscriptionPlan, error) {
	m.mu.Lock()
	m.planCalls++
	m.mu.Unlock()
	if m.ActivePlanFunc != nil {
		return m.ActivePlanFunc(userID)
	}
	return nil, domain.ErrNoActiveSubscription
}

func (m *mockSubscriptions) GetByID(ctx context.Context, id string) (*model.UserSubscription, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSubscriptions) FinishExpired(ctx context.Context, limit int) (int, error) {
	return 0, nil
}

// memRepo is a tiny fixture store shared by the ownership-stage tests.
type memStore struct {
	bookings map[string]*model.Booking
	subs     map[string]*model.UserSubscription
	payments map[string]*model.Payment
	courses  map[string]*model.Course
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[string]*model.Booking{},
		subs:     map[string]*model.UserSubscription{},
		payments: map[string]*model.Payment{},
		courses:  map[string]*model.Course{},
	}
}

type memBookings struct{ s *memStore }

func (m memBookings) Save(ctx context.Context, _ repository.Tx, b *model.Booking) error {
	m.s.bookings[b.ID] = b
	return nil
}

func (m memBookings) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Booking, error) {
	if b, ok := m.s.bookings[id]; ok {
		return b, nil
	}
	return nil, domain.ErrNotFound
}

type memSubs struct{ s *memStore }

func (m memSubs) Save(ctx context.Context, _ repository.Tx, sub *model.UserSubscription) error {
	m.s.subs[sub.ID] = sub
	return nil
}

func (m memSubs) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.UserSubscription, error) {
	if s, ok := m.s.subs[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m memSubs) FindActiveByUser(ctx context.Context, _ repository.Tx, userID string) (*model.UserSubscription, error) {
	return nil, domain.ErrNotFound
}

func (m memSubs) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.SubscriptionStatus) error {
	return nil
}

func (m memSubs) ListActiveExpiredBefore(ctx context.Context, _ repository.Tx, cutoff time.Time, limit int) ([]*model.UserSubscription, error) {
	return nil, nil
}

// memPayments keys payments by session id, matching how the ownership stage
// looks them up.
type memPayments struct{ s *memStore }

func (m memPayments) Save(ctx context.Context, _ repository.Tx, p *model.Payment) error {
	m.s.payments[p.SessionID] = p
	return nil
}

func (m memPayments) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Payment, error) {
	for _, p := range m.s.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m memPayments) FindBySessionID(ctx context.Context, _ repository.Tx, sessionID string) (*model.Payment, error) {
	if p, ok := m.s.payments[sessionID]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m memPayments) FindPendingByReference(ctx context.Context, _ repository.Tx, refType model.ReferenceType, referenceID string) (*model.Payment, error) {
	return nil, domain.ErrNotFound
}

func (m memPayments) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.PaymentStatus, intentID *string, paidAt *time.Time) error {
	return nil
}

func (m memPayments) Delete(ctx context.Context, _ repository.Tx, id string) error { return nil }

func (m memPayments) ListPendingOlderThan(ctx context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return nil, nil
}

type memCourses struct{ s *memStore }

func (m memCourses) Save(ctx context.Context, _ repository.Tx, c *model.Course) error {
	m.s.courses[c.ID] = c
	return nil
}

func (m memCourses) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Course, error) {
	if c, ok := m.s.courses[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

// mockEnrollments satisfies EnrollmentUseCase for webhook and handler tests.
type mockEnrollments struct {
	mu        sync.Mutex
	reconcile []adapter.CheckoutEvent

	InitiateFunc  func(userID, courseID string) (*usecase.PurchaseIntent, error)
	ReconcileFunc func(ev adapter.CheckoutEvent) error
	VerifyFunc    func(userID, sessionID string) (*model.Payment, error)
	StatusFunc    func(userID, sessionID string) (*usecase.SessionView, error)
}

var _ usecase.EnrollmentUseCase = (*mockEnrollments)(nil)

func (m *mockEnrollments) InitiatePurchase(ctx context.Context, userID, courseID string) (*usecase.PurchaseIntent, error) {
	if m.InitiateFunc != nil {
		return m.InitiateFunc(userID, courseID)
	}
	return &usecase.PurchaseIntent{
		PaymentID:   "pay-1",
		SessionID:   "cs_1",
		CheckoutURL: "https://checkout.example.com/cs_1",
		Outcome:     usecase.OutcomeCreated,
	}, nil
}

func (m *mockEnrollments) Reconcile(ctx context.Context, ev adapter.CheckoutEvent) error {
	m.mu.Lock()
	m.reconcile = append(m.reconcile, ev)
	m.mu.Unlock()
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ev)
	}
	return nil
}

func (m *mockEnrollments) VerifyPayment(ctx context.Context, userID, sessionID string) (*model.Payment, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(userID, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEnrollments) SessionStatus(ctx context.Context, userID, sessionID string) (*usecase.SessionView, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(userID, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEnrollments) reconcileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reconcile)
}
