package model

import (
	"strings"
	"time"

	"course-booking-platform/internal/domain"

	"github.com/google/uuid"
)

// Role is a closed enumeration. RoleAdmin bypasses every feature check.
type Role string

const (
	RoleAdmin               Role = "ADMIN"
	RoleInstructorAdmin     Role = "INSTRUCTOR_ADMIN"
	RoleCurriculumSeller    Role = "CURRICULUM_SELLER"
	RoleBookingProfessional Role = "BOOKING_PROFESSIONAL"
	RoleStudent             Role = "STUDENT"
)

// NormalizeRole canonicalizes role strings from token claims to upper-case.
func NormalizeRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

// User is the persisted account entity.
type User struct {
	ID           string
	Email        string
	Name         string
	Roles        []Role
	Tier         Tier
	RegisteredAt time.Time
	LastActiveAt time.Time
}

func NewUser(id, email, name string, roles []Role) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	if len(roles) == 0 {
		roles = []Role{RoleStudent}
	}
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		Name:         name,
		Roles:        roles,
		Tier:         TierNone,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

func (u *User) HasRole(r Role) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// Principal is the authenticated actor attached to a request: the user id plus
// the role set and subscription tier carried by its token. Roles and tier are
// normalized on construction, so lookups downstream are plain map hits.
type Principal struct {
	UserID string
	Roles  []Role
	Tier   Tier
}

// NewPrincipal builds a Principal from raw claim strings.
func NewPrincipal(userID string, roles []string, tier string) Principal {
	p := Principal{UserID: userID, Tier: NormalizeTier(tier)}
	for _, r := range roles {
		if nr := NormalizeRole(r); nr != "" {
			p.Roles = append(p.Roles, nr)
		}
	}
	return p
}

func (p Principal) IsZero() bool { return p.UserID == "" }

func (p Principal) HasRole(r Role) bool {
	for _, have := range p.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the principal holds the universal admin role.
func (p Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }
