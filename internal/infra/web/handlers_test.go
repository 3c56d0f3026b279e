//go:build !integration

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"course-booking-platform/internal/config"
	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/usecase"
)

type mockPlans struct {
	ListFunc func() ([]*model.SubscriptionPlan, error)
}

var _ usecase.PlanUseCase = (*mockPlans)(nil)

func (m *mockPlans) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return nil, nil
}

func (m *mockPlans) GetByID(ctx context.Context, id string) (*model.SubscriptionPlan, error) {
	return nil, domain.ErrNotFound
}

type mockCourses struct {
	CreateFunc func(instructorID, title string, priceCents int64, currency string) (*model.Course, error)
}

var _ usecase.CourseUseCase = (*mockCourses)(nil)

func (m *mockCourses) Create(ctx context.Context, instructorID, title string, priceCents int64, currency string) (*model.Course, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(instructorID, title, priceCents, currency)
	}
	return &model.Course{ID: "c1", Title: title, InstructorID: instructorID}, nil
}

func (m *mockCourses) Update(ctx context.Context, id, title string, priceCents int64) (*model.Course, error) {
	return &model.Course{ID: id, Title: title, PriceCents: priceCents}, nil
}

func (m *mockCourses) Get(ctx context.Context, id string) (*model.Course, error) {
	return nil, domain.ErrNotFound
}

func (m *mockCourses) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return nil, domain.ErrNotFound
}

type serverFixture struct {
	srv   *Server
	subs  *mockSubscriptions
	store *memStore
}

func newTestServer(enroll *mockEnrollments) *serverFixture {
	cfg := &config.Config{}
	cfg.Server.RequestTimeout = 5 * time.Second
	cfg.Auth.JWTSecret = "test-secret"
	cfg.RateLimit.PurchaseLimit = 100
	cfg.RateLimit.PurchaseWindow = time.Minute

	store := newMemStore()
	ents := &mockEntitlements{}
	subs := &mockSubscriptions{}
	// Most routes assume a subscribed caller; tests flip this off to
	// exercise the subscription stage.
	subs.GetActiveFunc = func(userID string) (*model.UserSubscription, error) {
		return &model.UserSubscription{
			ID: "sub-" + userID, UserID: userID, Status: model.SubscriptionStatusActive,
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil
	}
	guard := NewGuard(ents, subs, memBookings{store}, memSubs{store}, memPayments{store}, memCourses{store})

	logger := zerolog.Nop()
	gwHandler, _ := newWebhookFixture()
	srv := NewServer(cfg, guard, nil, enroll, ents, subs, &mockPlans{}, &mockCourses{}, gwHandler, &logger)
	return &serverFixture{srv: srv, subs: subs, store: store}
}

func (f *serverFixture) Router() http.Handler { return f.srv.Router() }

func authedRequest(t *testing.T, method, path, body string, roles []string) *http.Request {
	t.Helper()
	token, err := IssueToken("test-secret", "u1", roles, "FREE", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestEnrollEndpoint(t *testing.T) {
	enroll := &mockEnrollments{}
	router := newTestServer(enroll).Router()

	t.Run("without a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/enroll-course/c1", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("with a valid token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/enroll-course/c1", "", []string{"STUDENT"}))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp enrollResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.CheckoutURL == "" || resp.SessionID == "" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("without an active subscription", func(t *testing.T) {
		f := newTestServer(&mockEnrollments{})
		f.subs.GetActiveFunc = func(userID string) (*model.UserSubscription, error) {
			return nil, domain.ErrNoActiveSubscription
		}
		rec := httptest.NewRecorder()
		f.Router().ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/enroll-course/c1", "", []string{"STUDENT"}))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("already enrolled maps to 409", func(t *testing.T) {
		enroll.InitiateFunc = func(userID, courseID string) (*usecase.PurchaseIntent, error) {
			return nil, domain.ErrAlreadyEnrolled
		}
		defer func() { enroll.InitiateFunc = nil }()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/enroll-course/c1", "", []string{"STUDENT"}))
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", rec.Code)
		}
	})
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	enroll := &mockEnrollments{}
	enroll.VerifyFunc = func(userID, sessionID string) (*model.Payment, error) {
		return &model.Payment{ID: "pay-1", UserID: userID, SessionID: sessionID, Status: model.PaymentStatusSucceeded}, nil
	}
	router := newTestServer(enroll).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/verify-payment",
		`{"session_id":"cs_1"}`, []string{"STUDENT"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp paymentResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "SUCCEEDED" {
		t.Errorf("status = %s", resp.Status)
	}

	t.Run("missing session id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/verify-payment", `{}`, []string{"STUDENT"}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestExpiredTokenRejected(t *testing.T) {
	router := newTestServer(&mockEnrollments{}).Router()

	token, err := IssueToken("test-secret", "u1", []string{"STUDENT"}, "", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll-course/c1", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRoleFeaturesEndpointRequiresAdmin(t *testing.T) {
	router := newTestServer(&mockEnrollments{}).Router()
	body := `{"features":["ENROLL_COURSES"]}`

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPut, "/api/v1/admin/roles/student/features", body, []string{"STUDENT"}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin: status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(t, http.MethodPut, "/api/v1/admin/roles/student/features", body, []string{"ADMIN"}))
	if rec.Code != http.StatusOK {
		t.Errorf("admin: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestSubscriptionByIDEndpoint(t *testing.T) {
	f := newTestServer(&mockEnrollments{})
	f.store.subs["sub-1"] = &model.UserSubscription{ID: "sub-1", UserID: "u1", Status: model.SubscriptionStatusActive}
	f.subs.GetByIDFunc = func(id string) (*model.UserSubscription, error) {
		if s, ok := f.store.subs[id]; ok {
			return s, nil
		}
		return nil, domain.ErrNotFound
	}
	router := f.Router()

	t.Run("owner reads their subscription", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/subscriptions/sub-1", "", []string{"STUDENT"}))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("stranger is denied", func(t *testing.T) {
		token, err := IssueToken("test-secret", "u2", []string{"STUDENT"}, "FREE", time.Minute)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/sub-1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestURLParamExtraction(t *testing.T) {
	// chi routing delivers the id parameter to the handler.
	r := chi.NewRouter()
	var got string
	r.Post("/enroll-course/{id}", func(w http.ResponseWriter, r *http.Request) {
		got = chi.URLParam(r, "id")
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/enroll-course/course-42", nil))
	if got != "course-42" {
		t.Errorf("id = %q", got)
	}
}
