//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/adapter"
	"course-booking-platform/internal/domain/ports/repository"
)

// mockTxManager runs the function directly with a marker handle. Repositories
// in these tests are in-memory, so there is nothing to commit or roll back.
type mockTxManager struct {
	calls int
}

type mockTx struct{}

func (m *mockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.calls++
	return fn(ctx, mockTx{})
}

// serialTxManager serializes transaction bodies the way the advisory lock
// does in production, so overlapping calls run one after the other.
type serialTxManager struct {
	mu sync.Mutex
}

func (m *serialTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, mockTx{})
}

// memCourseRepo is a small in-memory implementation used by unit tests.
type memCourseRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Course
}

func newMemCourseRepo() *memCourseRepo {
	return &memCourseRepo{store: make(map[string]*model.Course)}
}

func (m *memCourseRepo) Save(ctx context.Context, _ repository.Tx, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCourseRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type memBookingRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{store: make(map[string]*model.Booking)}
}

func (m *memBookingRepo) Save(ctx context.Context, _ repository.Tx, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.store[b.ID] = &cp
	return nil
}

func (m *memBookingRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, _ repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, _ repository.Tx, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// memEnrollmentRepo keeps enrollments keyed by id. findErr lets tests inject
// failures on the re-check path.
type memEnrollmentRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Enrollment
	findErr error
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{store: make(map[string]*model.Enrollment)}
}

func (m *memEnrollmentRepo) Save(ctx context.Context, _ repository.Tx, e *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *memEnrollmentRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Enrollment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memEnrollmentRepo) FindCurrentByUserAndCourse(ctx context.Context, _ repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.Enrollment
	for _, e := range m.store {
		if e.UserID != userID || e.CourseID != courseID || e.Status == model.EnrollmentStatusCancelled {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memEnrollmentRepo) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.EnrollmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = time.Now()
	return nil
}

func (m *memEnrollmentRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

type memPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, _ repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindBySessionID(ctx context.Context, _ repository.Tx, sessionID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.SessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) FindPendingByReference(ctx context.Context, _ repository.Tx, refType model.ReferenceType, referenceID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.ReferenceType == refType && p.ReferenceID == referenceID && p.Status == model.PaymentStatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.PaymentStatus, intentID *string, paidAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if intentID != nil {
		p.IntentID = *intentID
	}
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *memPaymentRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, _ repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type memPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.SubscriptionPlan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{store: make(map[string]*model.SubscriptionPlan)}
}

func (m *memPlanRepo) Save(ctx context.Context, _ repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPlanRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPlanRepo) FindByTier(ctx context.Context, _ repository.Tx, tier model.Tier) (*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Tier == tier {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPlanRepo) List(ctx context.Context, _ repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.SubscriptionPlan, 0, len(m.store))
	for _, p := range m.store {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

type memSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.UserSubscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{store: make(map[string]*model.UserSubscription)}
}

func (m *memSubscriptionRepo) Save(ctx context.Context, _ repository.Tx, s *model.UserSubscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSubscriptionRepo) FindActiveByUser(ctx context.Context, _ repository.Tx, userID string) (*model.UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.UserID == userID && s.Status == model.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubscriptionRepo) UpdateStatus(ctx context.Context, _ repository.Tx, id string, status model.SubscriptionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	return nil
}

func (m *memSubscriptionRepo) ListActiveExpiredBefore(ctx context.Context, _ repository.Tx, cutoff time.Time, limit int) ([]*model.UserSubscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.UserSubscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && s.ExpiresAt.Before(cutoff) {
			cp := *s
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// mockGateway simulates the checkout provider. Tests override the Func fields
// to shape provider behavior per scenario.
type mockGateway struct {
	mu       sync.Mutex
	sessions map[string]adapter.SessionStatus
	nextID   int

	CreateSessionFunc   func(ctx context.Context, in adapter.CheckoutInput) (adapter.CheckoutSession, error)
	RetrieveSessionFunc func(ctx context.Context, id string) (adapter.SessionStatus, error)
}

func newMockGateway() *mockGateway {
	return &mockGateway{sessions: make(map[string]adapter.SessionStatus)}
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreateSession(ctx context.Context, in adapter.CheckoutInput) (adapter.CheckoutSession, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, in)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := "cs_test_" + string(rune('a'+m.nextID-1))
	url := "https://checkout.example.com/" + id
	m.sessions[id] = adapter.SessionStatus{
		ID: id, State: adapter.SessionOpen, Payment: adapter.PaymentUnpaid,
		URL: url, Metadata: in.Metadata,
	}
	return adapter.CheckoutSession{ID: id, URL: url}, nil
}

func (m *mockGateway) RetrieveSession(ctx context.Context, id string) (adapter.SessionStatus, error) {
	if m.RetrieveSessionFunc != nil {
		return m.RetrieveSessionFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return adapter.SessionStatus{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockGateway) setState(id string, state adapter.SessionState, payment adapter.PaymentState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[id]
	s.ID = id
	s.State = state
	s.Payment = payment
	if state != adapter.SessionOpen {
		s.URL = ""
	}
	m.sessions[id] = s
}

func (m *mockGateway) VerifyWebhook(payload []byte, signature string) (adapter.CheckoutEvent, error) {
	return adapter.CheckoutEvent{}, nil
}

// mockNotifier records every send so tests can assert at-most-once delivery.
type mockNotifier struct {
	mu    sync.Mutex
	sends []adapter.NotificationKind

	SendFunc func(ctx context.Context, kind adapter.NotificationKind, recipient string, payload map[string]string) error
}

func (m *mockNotifier) Send(ctx context.Context, kind adapter.NotificationKind, recipient string, payload map[string]string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, kind, recipient, payload); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, kind)
	return nil
}

func (m *mockNotifier) count(kind adapter.NotificationKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, k := range m.sends {
		if k == kind {
			n++
		}
	}
	return n
}
