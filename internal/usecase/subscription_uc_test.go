//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
)

func seedPlan(t *testing.T, plans *memPlanRepo, id string, tier model.Tier, roles []model.Role) *model.SubscriptionPlan {
	t.Helper()
	plan, err := model.NewSubscriptionPlan(id, "Plan "+id, tier, 999, 30, roles)
	if err != nil {
		t.Fatalf("NewSubscriptionPlan: %v", err)
	}
	if err := plans.Save(context.Background(), nil, plan); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return plan
}

func TestSubscription_GetActive(t *testing.T) {
	ctx := context.Background()
	subs := newMemSubscriptionRepo()
	plans := newMemPlanRepo()
	uc := NewSubscriptionUseCase(subs, plans, &mockTxManager{}, zerolog.Nop())
	plan := seedPlan(t, plans, "plan-1", model.TierRoyalty, nil)

	t.Run("no subscription", func(t *testing.T) {
		_, err := uc.GetActive(ctx, "user-1")
		if !errors.Is(err, domain.ErrNoActiveSubscription) {
			t.Errorf("got %v, want ErrNoActiveSubscription", err)
		}
	})

	t.Run("active subscription", func(t *testing.T) {
		sub, err := model.NewUserSubscription("sub-1", "user-1", plan)
		if err != nil {
			t.Fatalf("NewUserSubscription: %v", err)
		}
		_ = subs.Save(ctx, nil, sub)

		got, err := uc.GetActive(ctx, "user-1")
		if err != nil {
			t.Fatalf("GetActive: %v", err)
		}
		if got.Tier != model.TierRoyalty {
			t.Errorf("tier = %s, want ROYALTY", got.Tier)
		}
	})

	t.Run("past expiry but not yet finished", func(t *testing.T) {
		sub, _ := model.NewUserSubscription("sub-2", "user-2", plan)
		sub.ExpiresAt = time.Now().Add(-time.Hour)
		_ = subs.Save(ctx, nil, sub)

		_, err := uc.GetActive(ctx, "user-2")
		if !errors.Is(err, domain.ErrExpiredSubscription) {
			t.Errorf("got %v, want ErrExpiredSubscription", err)
		}
	})
}

func TestSubscription_ActivePlan(t *testing.T) {
	ctx := context.Background()
	subs := newMemSubscriptionRepo()
	plans := newMemPlanRepo()
	uc := NewSubscriptionUseCase(subs, plans, &mockTxManager{}, zerolog.Nop())
	plan := seedPlan(t, plans, "plan-1", model.TierImperial, []model.Role{"IMPERIAL"})

	sub, _ := model.NewUserSubscription("sub-1", "user-1", plan)
	_ = subs.Save(ctx, nil, sub)

	got, err := uc.ActivePlan(ctx, "user-1")
	if err != nil {
		t.Fatalf("ActivePlan: %v", err)
	}
	if got.ID != "plan-1" {
		t.Errorf("plan = %s, want plan-1", got.ID)
	}
	if !got.UnlocksTier(model.TierImperial) {
		t.Error("plan should unlock IMPERIAL")
	}
}

func TestSubscription_GetByID(t *testing.T) {
	ctx := context.Background()
	subs := newMemSubscriptionRepo()
	plans := newMemPlanRepo()
	uc := NewSubscriptionUseCase(subs, plans, &mockTxManager{}, zerolog.Nop())
	plan := seedPlan(t, plans, "plan-1", model.TierNobility, nil)

	sub, _ := model.NewUserSubscription("sub-1", "user-1", plan)
	_ = subs.Save(ctx, nil, sub)

	got, err := uc.GetByID(ctx, "sub-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("user = %s, want user-1", got.UserID)
	}
	if _, err := uc.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestSubscription_FinishExpired(t *testing.T) {
	ctx := context.Background()
	subs := newMemSubscriptionRepo()
	plans := newMemPlanRepo()
	uc := NewSubscriptionUseCase(subs, plans, &mockTxManager{}, zerolog.Nop())
	plan := seedPlan(t, plans, "plan-1", model.TierFree, nil)

	live, _ := model.NewUserSubscription("sub-live", "user-1", plan)
	stale, _ := model.NewUserSubscription("sub-stale", "user-2", plan)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	_ = subs.Save(ctx, nil, live)
	_ = subs.Save(ctx, nil, stale)

	n, err := uc.FinishExpired(ctx, 0)
	if err != nil {
		t.Fatalf("FinishExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("finished = %d, want 1", n)
	}

	got, _ := subs.FindByID(ctx, nil, "sub-stale")
	if got.Status != model.SubscriptionStatusExpired {
		t.Errorf("stale status = %s, want EXPIRED", got.Status)
	}
	got, _ = subs.FindByID(ctx, nil, "sub-live")
	if got.Status != model.SubscriptionStatusActive {
		t.Errorf("live status = %s, want ACTIVE", got.Status)
	}

	// Second sweep finds nothing.
	n, err = uc.FinishExpired(ctx, 0)
	if err != nil || n != 0 {
		t.Errorf("second sweep: n=%d err=%v", n, err)
	}
}
