package session

import (
	"testing"

	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
)

func rolePtr(r profiledomain.Role) *profiledomain.Role { return &r }

func TestDecideTotality(t *testing.T) {
	roles := []profiledomain.Role{profiledomain.RoleCoach, profiledomain.RolePlayer}
	requirements := []*profiledomain.Role{
		rolePtr(profiledomain.RoleCoach),
		rolePtr(profiledomain.RolePlayer),
		nil,
	}
	views := []string{"/dashboard", PathProfileSetup}

	known := map[DecisionKind]bool{ShowLoading: true, Redirect: true, Render: true}

	for _, role := range roles {
		profile := &profiledomain.Profile{ID: 1, Role: role}
		for _, required := range requirements {
			for _, view := range views {
				snap := Snapshot{Identity: identityFor(1), Profile: profile}
				d := Decide(snap, view, required)
				if !known[d.Kind] {
					t.Fatalf("unmapped decision %q for role=%s", d.Kind, role)
				}
				if d.Kind == Redirect && d.Target == "" {
					t.Fatalf("redirect without target for role=%s", role)
				}
			}
		}
	}
}

func TestRoleDashboardTotal(t *testing.T) {
	if got := RoleDashboard(profiledomain.RoleCoach); got != PathCoachDashboard {
		t.Fatalf("coach dashboard = %q", got)
	}
	if got := RoleDashboard(profiledomain.RolePlayer); got != PathPlayerDashboard {
		t.Fatalf("player dashboard = %q", got)
	}
	if got := RoleDashboard(profiledomain.Role("unknown")); got == "" {
		t.Fatal("unknown role must still map somewhere")
	}
}

func TestDecideShowsLoading(t *testing.T) {
	d := Decide(Snapshot{Loading: true}, "/dashboard", nil)
	if d.Kind != ShowLoading {
		t.Fatalf("expected loading, got %+v", d)
	}
}

func TestDecideUnauthenticatedRedirectsToLogin(t *testing.T) {
	d := Decide(Snapshot{}, "/dashboard", nil)
	if d.Kind != Redirect || d.Target != PathLogin {
		t.Fatalf("expected login redirect, got %+v", d)
	}
}

func TestDecideMissingProfileRedirectsToSetup(t *testing.T) {
	snap := Snapshot{Identity: identityFor(1)}

	d := Decide(snap, "/dashboard", nil)
	if d.Kind != Redirect || d.Target != PathProfileSetup {
		t.Fatalf("expected setup redirect, got %+v", d)
	}

	// The setup view itself renders, otherwise it could never be reached.
	d = Decide(snap, PathProfileSetup, nil)
	if d.Kind != Render {
		t.Fatalf("setup view should render, got %+v", d)
	}

	// An error snapshot routes the same way as NeedsSetup.
	snap.Err = "transport down"
	d = Decide(snap, "/dashboard", nil)
	if d.Kind != Redirect || d.Target != PathProfileSetup {
		t.Fatalf("error state should redirect to setup, got %+v", d)
	}
}

func TestDecideRoleMismatchRedirectsToOwnDashboard(t *testing.T) {
	snap := Snapshot{Identity: identityFor(1), Profile: coachProfile(1)}

	d := Decide(snap, "/player", rolePtr(profiledomain.RolePlayer))
	if d.Kind != Redirect || d.Target != PathCoachDashboard {
		t.Fatalf("coach on a player view should land on the coach dashboard, got %+v", d)
	}

	d = Decide(snap, "/coach", rolePtr(profiledomain.RoleCoach))
	if d.Kind != Render {
		t.Fatalf("matching role should render, got %+v", d)
	}

	d = Decide(snap, "/drills", nil)
	if d.Kind != Render {
		t.Fatalf("no required role should render, got %+v", d)
	}
}
