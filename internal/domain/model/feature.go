package model

import (
	"fmt"
	"strings"

	"course-booking-platform/internal/domain"
)

// Feature is a named capability from a closed catalog. Operations are gated on
// features, never on roles directly (roles and plan tiers both map to features).
type Feature string

const (
	FeatureCreateCourses     Feature = "CREATE_COURSES"
	FeatureManageCurriculum  Feature = "MANAGE_CURRICULUM"
	FeatureEnrollCourses     Feature = "ENROLL_COURSES"
	FeatureManageBookings    Feature = "MANAGE_BOOKINGS"
	FeatureAcceptBookings    Feature = "ACCEPT_BOOKINGS"
	FeatureIssueCertificates Feature = "ISSUE_CERTIFICATES"
	FeatureFeaturedSeller    Feature = "FEATURED_SELLER"
	FeatureViewAnalytics     Feature = "VIEW_ANALYTICS"
	FeatureMessageStudents   Feature = "MESSAGE_STUDENTS"
	FeatureManageUsers       Feature = "MANAGE_USERS"
)

// AllFeatures is the closed catalog universe.
var AllFeatures = []Feature{
	FeatureCreateCourses,
	FeatureManageCurriculum,
	FeatureEnrollCourses,
	FeatureManageBookings,
	FeatureAcceptBookings,
	FeatureIssueCertificates,
	FeatureFeaturedSeller,
	FeatureViewAnalytics,
	FeatureMessageStudents,
	FeatureManageUsers,
}

// Tier is a subscription level. Tiers unlock feature sets independently of
// roles; no ordering between tiers is assumed anywhere in the code.
type Tier string

const (
	TierNone     Tier = ""
	TierFree     Tier = "FREE"
	TierNobility Tier = "NOBILITY"
	TierRoyalty  Tier = "ROYALTY"
	TierImperial Tier = "IMPERIAL"
)

// NormalizeTier maps upstream tier claims (arriving in inconsistent case) to
// the catalog's canonical upper-case form.
func NormalizeTier(s string) Tier {
	return Tier(strings.ToUpper(strings.TrimSpace(s)))
}

// Catalog holds the static role->features and tier->features maps. It is
// constructed once at startup and treated as immutable; runtime updates go
// through the entitlement use case, which installs a whole new snapshot.
type Catalog struct {
	RoleFeatures map[Role][]Feature
	PlanFeatures map[Tier][]Feature
}

// DefaultCatalog returns the shipped role/plan feature maps.
func DefaultCatalog() Catalog {
	return Catalog{
		RoleFeatures: map[Role][]Feature{
			RoleAdmin: AllFeatures,
			RoleInstructorAdmin: {
				FeatureCreateCourses, FeatureManageCurriculum, FeatureIssueCertificates,
				FeatureViewAnalytics, FeatureMessageStudents,
			},
			RoleCurriculumSeller: {
				FeatureCreateCourses, FeatureManageCurriculum, FeatureViewAnalytics,
			},
			RoleBookingProfessional: {
				FeatureAcceptBookings, FeatureManageBookings, FeatureMessageStudents,
			},
			RoleStudent: {
				FeatureEnrollCourses, FeatureManageBookings,
			},
		},
		PlanFeatures: map[Tier][]Feature{
			TierFree:     {FeatureEnrollCourses},
			TierNobility: {FeatureEnrollCourses, FeatureManageBookings},
			TierRoyalty: {
				FeatureEnrollCourses, FeatureManageBookings, FeatureCreateCourses,
				FeatureViewAnalytics,
			},
			TierImperial: {
				FeatureEnrollCourses, FeatureManageBookings, FeatureCreateCourses,
				FeatureViewAnalytics, FeatureFeaturedSeller, FeatureIssueCertificates,
			},
		},
	}
}

// Validate checks that every catalog feature is reachable through at least one
// role or one plan tier. An unreachable feature gates nothing and is dead data.
func (c Catalog) Validate() error {
	reachable := make(map[Feature]struct{})
	for _, fs := range c.RoleFeatures {
		for _, f := range fs {
			reachable[f] = struct{}{}
		}
	}
	for _, fs := range c.PlanFeatures {
		for _, f := range fs {
			reachable[f] = struct{}{}
		}
	}
	for _, f := range AllFeatures {
		if _, ok := reachable[f]; !ok {
			return fmt.Errorf("%w: feature %s is not reachable by any role or tier", domain.ErrInvalidArgument, f)
		}
	}
	return nil
}
