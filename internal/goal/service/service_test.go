package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/goal/domain"
	"github.com/courtsidehq/courtside/internal/goal/repository"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Goal{}, &domain.ProgressEntry{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})
	return svc, node
}

func playerContext(node *snowflake.Node) (context.Context, principalctx.Principal) {
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RolePlayer}
	return principalctx.WithPrincipal(context.Background(), principal), principal
}

func coachContext(node *snowflake.Node) (context.Context, principalctx.Principal) {
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}
	return principalctx.WithPrincipal(context.Background(), principal), principal
}

func TestPlayerCreatesOwnGoal(t *testing.T) {
	svc, node := newTestService(t)
	ctx, player := playerContext(node)

	goal, err := svc.Create(ctx, domain.CreateRequest{Title: "Make 50 free throws a day"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if goal.PlayerID != player.UserID.String() {
		t.Fatalf("player id %s, want %s", goal.PlayerID, player.UserID)
	}
	if goal.CoachID != nil {
		t.Fatalf("player-created goal must not carry a coach id")
	}
	if goal.Status != string(domain.StatusOpen) {
		t.Fatalf("expected open status, got %s", goal.Status)
	}
}

func TestCoachAssignsGoalToPlayer(t *testing.T) {
	svc, node := newTestService(t)
	ctx, coach := coachContext(node)
	playerID := node.Generate().String()

	goal, err := svc.Create(ctx, domain.CreateRequest{Title: "Improve left hand", PlayerID: &playerID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if goal.PlayerID != playerID {
		t.Fatalf("player id %s, want %s", goal.PlayerID, playerID)
	}
	if goal.CoachID == nil || *goal.CoachID != coach.UserID.String() {
		t.Fatalf("expected coach id %s, got %v", coach.UserID, goal.CoachID)
	}
}

func TestCoachMustNamePlayer(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	if _, err := svc.Create(ctx, domain.CreateRequest{Title: "Improve left hand"}); err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := playerContext(node)

	goal, err := svc.Create(ctx, domain.CreateRequest{Title: "Make varsity"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	achieved := string(domain.StatusAchieved)
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: goal.ID, Status: &achieved})
	if err != nil {
		t.Fatalf("achieve: %v", err)
	}
	if updated.Status != achieved {
		t.Fatalf("expected achieved, got %s", updated.Status)
	}

	// Closed goals can only reopen.
	abandoned := string(domain.StatusAbandoned)
	if _, err := svc.Update(ctx, domain.UpdateRequest{ID: goal.ID, Status: &abandoned}); err != domain.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	open := string(domain.StatusOpen)
	if _, err := svc.Update(ctx, domain.UpdateRequest{ID: goal.ID, Status: &open}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
}

func TestAddAndListProgress(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := playerContext(node)

	goal, err := svc.Create(ctx, domain.CreateRequest{Title: "Conditioning"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	comment := "first week done"
	entry, err := svc.AddProgress(ctx, domain.AddProgressRequest{ID: goal.ID, Percent: 25, Comment: &comment})
	if err != nil {
		t.Fatalf("add progress: %v", err)
	}
	if entry.Percent != 25 {
		t.Fatalf("percent %d, want 25", entry.Percent)
	}

	if _, err := svc.AddProgress(ctx, domain.AddProgressRequest{ID: goal.ID, Percent: 150}); err != domain.ErrInvalidPercent {
		t.Fatalf("expected ErrInvalidPercent, got %v", err)
	}

	entries, err := svc.ListProgress(ctx, goal.ID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestGoalsAreScopedToOwner(t *testing.T) {
	svc, node := newTestService(t)
	ctxA, _ := playerContext(node)
	ctxB, _ := playerContext(node)

	goal, err := svc.Create(ctxA, domain.CreateRequest{Title: "Private goal"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctxB, goal.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for another player, got %v", err)
	}
}
