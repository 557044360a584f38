package session

import (
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
)

// Well-known SPA paths the router redirects to.
const (
	PathLogin          = "/login"
	PathProfileSetup   = "/setup"
	PathCoachDashboard = "/coach"
	PathPlayerDashboard = "/player"
)

type DecisionKind string

const (
	ShowLoading DecisionKind = "loading"
	Redirect    DecisionKind = "redirect"
	Render      DecisionKind = "render"
)

// Decision is the routing outcome for one requested view.
type Decision struct {
	Kind   DecisionKind `json:"kind"`
	Target string       `json:"target,omitempty"`
}

// RoleDashboard maps a role to its dashboard path. Total over the two
// known roles; anything else lands on profile setup.
func RoleDashboard(role profiledomain.Role) string {
	switch role {
	case profiledomain.RoleCoach:
		return PathCoachDashboard
	case profiledomain.RolePlayer:
		return PathPlayerDashboard
	default:
		return PathProfileSetup
	}
}

// Decide produces the routing decision for a requested view given the
// current snapshot. Pure and total: it never suspends and every
// combination of inputs maps to exactly one decision.
//
// view is the path being mounted; its self-identity exempts the
// profile-setup view from the missing-profile redirect.
func Decide(snap Snapshot, view string, requiredRole *profiledomain.Role) Decision {
	if snap.Loading {
		return Decision{Kind: ShowLoading}
	}
	if snap.Identity == nil {
		return Decision{Kind: Redirect, Target: PathLogin}
	}
	if snap.Profile == nil {
		if view == PathProfileSetup {
			return Decision{Kind: Render}
		}
		return Decision{Kind: Redirect, Target: PathProfileSetup}
	}
	if requiredRole != nil && snap.Profile.Role != *requiredRole {
		return Decision{Kind: Redirect, Target: RoleDashboard(snap.Profile.Role)}
	}
	return Decision{Kind: Render}
}
