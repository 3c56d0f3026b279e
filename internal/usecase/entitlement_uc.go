package usecase

import (
	"context"
	"sort"
	"sync/atomic"

	"course-booking-platform/internal/domain"
	"course-booking-platform/internal/domain/model"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase answers "can this principal do X" from the role and plan
// feature catalogs. Reads never block: the catalog lives behind an atomic
// snapshot and updates install a whole new one.
type EntitlementUseCase interface {
	// HasFeature reports whether the principal is entitled to the feature
	// through any of its roles or its subscription tier. Admins hold every
	// feature unconditionally.
	HasFeature(ctx context.Context, p model.Principal, f model.Feature) bool
	// ListFeatures returns the principal's full entitlement set, sorted.
	// It is computed from the same snapshot HasFeature reads, so
	// HasFeature(p, f) == true exactly when f appears in ListFeatures(p).
	ListFeatures(ctx context.Context, p model.Principal) []model.Feature
	// SetRoleFeatures replaces one role's feature list at runtime.
	SetRoleFeatures(ctx context.Context, role model.Role, features []model.Feature) error
	// Catalog returns the current snapshot's catalog for inspection.
	Catalog(ctx context.Context) model.Catalog
}

type entitlementUC struct {
	snapshot atomic.Pointer[catalogSnapshot]
}

// catalogSnapshot precomputes per-role and per-tier feature sets so lookups
// stay allocation-free on the hot path.
type catalogSnapshot struct {
	catalog      model.Catalog
	roleFeatures map[model.Role]map[model.Feature]struct{}
	planFeatures map[model.Tier]map[model.Feature]struct{}
}

func NewEntitlementUseCase(catalog model.Catalog) (*entitlementUC, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	uc := &entitlementUC{}
	uc.snapshot.Store(buildSnapshot(catalog))
	return uc, nil
}

func buildSnapshot(catalog model.Catalog) *catalogSnapshot {
	s := &catalogSnapshot{
		catalog:      catalog,
		roleFeatures: make(map[model.Role]map[model.Feature]struct{}, len(catalog.RoleFeatures)),
		planFeatures: make(map[model.Tier]map[model.Feature]struct{}, len(catalog.PlanFeatures)),
	}
	for role, fs := range catalog.RoleFeatures {
		set := make(map[model.Feature]struct{}, len(fs))
		for _, f := range fs {
			set[f] = struct{}{}
		}
		s.roleFeatures[role] = set
	}
	for tier, fs := range catalog.PlanFeatures {
		set := make(map[model.Feature]struct{}, len(fs))
		for _, f := range fs {
			set[f] = struct{}{}
		}
		s.planFeatures[tier] = set
	}
	return s
}

// featureSet is the single resolution path shared by HasFeature and
// ListFeatures. Roles and tier contribute with OR semantics; an unknown role
// or tier contributes nothing.
func (s *catalogSnapshot) featureSet(p model.Principal) map[model.Feature]struct{} {
	out := make(map[model.Feature]struct{})
	if p.IsAdmin() {
		for _, f := range model.AllFeatures {
			out[f] = struct{}{}
		}
		return out
	}
	for _, role := range p.Roles {
		for f := range s.roleFeatures[role] {
			out[f] = struct{}{}
		}
	}
	if p.Tier != model.TierNone {
		for f := range s.planFeatures[p.Tier] {
			out[f] = struct{}{}
		}
	}
	return out
}

func (uc *entitlementUC) HasFeature(ctx context.Context, p model.Principal, f model.Feature) bool {
	_, ok := uc.snapshot.Load().featureSet(p)[f]
	return ok
}

func (uc *entitlementUC) ListFeatures(ctx context.Context, p model.Principal) []model.Feature {
	set := uc.snapshot.Load().featureSet(p)
	out := make([]model.Feature, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (uc *entitlementUC) SetRoleFeatures(ctx context.Context, role model.Role, features []model.Feature) error {
	if role == "" {
		return domain.ErrInvalidArgument
	}
	known := make(map[model.Feature]struct{}, len(model.AllFeatures))
	for _, f := range model.AllFeatures {
		known[f] = struct{}{}
	}
	for _, f := range features {
		if _, ok := known[f]; !ok {
			return domain.ErrInvalidArgument
		}
	}

	cur := uc.snapshot.Load().catalog
	next := model.Catalog{
		RoleFeatures: make(map[model.Role][]model.Feature, len(cur.RoleFeatures)+1),
		PlanFeatures: cur.PlanFeatures,
	}
	for r, fs := range cur.RoleFeatures {
		next.RoleFeatures[r] = fs
	}
	next.RoleFeatures[role] = append([]model.Feature(nil), features...)

	if err := next.Validate(); err != nil {
		return err
	}
	uc.snapshot.Store(buildSnapshot(next))
	return nil
}

func (uc *entitlementUC) Catalog(ctx context.Context) model.Catalog {
	return uc.snapshot.Load().catalog
}
