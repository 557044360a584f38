package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/pkg/db"
)

func newTestAuthz(t *testing.T) (Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	enforcer, err := NewEnforcer(dbConn)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := NewService(Params{DB: dbConn, Log: zap.NewNop(), Enforcer: enforcer})
	return svc, node
}

func TestCoachCanCreateDrill(t *testing.T) {
	svc, node := newTestAuthz(t)
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}

	if err := svc.Authorize(context.Background(), principal, ObjectDrill, ActionDrillCreate); err != nil {
		t.Fatalf("expected coach to create drills, got %v", err)
	}
}

func TestPlayerCannotCreateDrill(t *testing.T) {
	svc, node := newTestAuthz(t)
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RolePlayer}

	if err := svc.Authorize(context.Background(), principal, ObjectDrill, ActionDrillCreate); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPlayerCanViewDrillsAndJoinTeams(t *testing.T) {
	svc, node := newTestAuthz(t)
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RolePlayer}

	if err := svc.Authorize(context.Background(), principal, ObjectDrill, ActionDrillView); err != nil {
		t.Fatalf("expected player to view drills, got %v", err)
	}
	if err := svc.Authorize(context.Background(), principal, ObjectTeam, ActionTeamJoin); err != nil {
		t.Fatalf("expected player to join teams, got %v", err)
	}
}

func TestCoachCannotJoinTeams(t *testing.T) {
	svc, node := newTestAuthz(t)
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}

	if err := svc.Authorize(context.Background(), principal, ObjectTeam, ActionTeamJoin); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorizeRejectsAnonymousPrincipal(t *testing.T) {
	svc, _ := newTestAuthz(t)

	err := svc.Authorize(context.Background(), principalctx.Principal{}, ObjectDrill, ActionDrillView)
	if err != ErrInvalidActor {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
}

func TestAuthorizeRejectsEmptyObject(t *testing.T) {
	svc, node := newTestAuthz(t)
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}

	if err := svc.Authorize(context.Background(), principal, "", ActionDrillView); err != ErrInvalidObject {
		t.Fatalf("expected ErrInvalidObject, got %v", err)
	}
	if err := svc.Authorize(context.Background(), principal, ObjectDrill, " "); err != ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestStaleRoleBindingIsReplaced(t *testing.T) {
	svc, node := newTestAuthz(t)
	id := node.Generate()

	coach := principalctx.Principal{UserID: id, Role: profiledomain.RoleCoach}
	if err := svc.Authorize(context.Background(), coach, ObjectDrill, ActionDrillCreate); err != nil {
		t.Fatalf("coach authorize: %v", err)
	}

	// The same subject re-bound as a player loses coach permissions.
	player := principalctx.Principal{UserID: id, Role: profiledomain.RolePlayer}
	if err := svc.Authorize(context.Background(), player, ObjectDrill, ActionDrillCreate); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden after rebinding, got %v", err)
	}
}
