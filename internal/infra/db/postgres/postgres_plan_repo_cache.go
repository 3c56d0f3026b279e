package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"course-booking-platform/internal/domain/model"
	"course-booking-platform/internal/domain/ports/repository"
	red "course-booking-platform/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads in Redis. Plans change rarely but
// are consulted by the tier guard stage on every guarded request.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient) repository.PlanRepository {
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	key := fmt.Sprintf("plan:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plan model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	} else if err != redis.Nil {
		// Redis unavailable; fall through to the database.
	}

	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		if bytes, err := json.Marshal(plan); err == nil {
			_ = d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) FindByTier(ctx context.Context, tx repository.Tx, tier model.Tier) (*model.SubscriptionPlan, error) {
	// Tier lookups bypass the cache; they only happen on seed/admin paths.
	return d.inner.FindByTier(ctx, tx, tier)
}

func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	_ = d.cache.Del(ctx, fmt.Sprintf("plan:%s", plan.ID), "plans:all")
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) List(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	key := "plans:all"
	if val, err := d.cache.Get(ctx, key); err == nil {
		var plans []*model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}
	plans, err := d.inner.List(ctx, tx)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(plans); err == nil {
		_ = d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plans, nil
}
