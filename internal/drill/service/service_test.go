package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/drill/domain"
	"github.com/courtsidehq/courtside/internal/drill/repository"
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
	if err := dbConn.AutoMigrate(&domain.Drill{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})
	return svc, node
}

func coachContext(node *snowflake.Node) (context.Context, principalctx.Principal) {
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}
	return principalctx.WithPrincipal(context.Background(), principal), principal
}

func playerContext(node *snowflake.Node) context.Context {
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RolePlayer}
	return principalctx.WithPrincipal(context.Background(), principal)
}

func TestCreateAndGetDrill(t *testing.T) {
	svc, node := newTestService(t)
	ctx, principal := coachContext(node)

	created, err := svc.Create(ctx, domain.CreateRequest{
		Title:           "3-man weave",
		SkillLevel:      "intermediate",
		Tags:            []string{"Passing", "passing", "conditioning"},
		DurationMinutes: 15,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CoachID != principal.UserID.String() {
		t.Fatalf("coach id %s, want %s", created.CoachID, principal.UserID)
	}
	if len(created.Tags) != 2 {
		t.Fatalf("expected deduplicated tags, got %v", created.Tags)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "3-man weave" {
		t.Fatalf("unexpected title %s", got.Title)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	if _, err := svc.Create(ctx, domain.CreateRequest{Title: "  ", SkillLevel: "beginner"}); err != domain.ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreateRequest{Title: "Suicides", SkillLevel: "pro"}); err != domain.ErrInvalidSkillLevel {
		t.Fatalf("expected ErrInvalidSkillLevel, got %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreateRequest{Title: "Suicides", SkillLevel: "beginner", DurationMinutes: -5}); err != domain.ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestCreateRequiresPrincipal(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), domain.CreateRequest{Title: "Suicides", SkillLevel: "beginner"})
	if err != domain.ErrInvalidActor {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
}

func TestCoachesAreScopedToTheirOwnDrills(t *testing.T) {
	svc, node := newTestService(t)
	ctxA, _ := coachContext(node)
	ctxB, _ := coachContext(node)

	created, err := svc.Create(ctxA, domain.CreateRequest{Title: "Closeouts", SkillLevel: "advanced"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctxB, created.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for another coach, got %v", err)
	}

	list, err := svc.List(ctxB, domain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Drills) != 0 {
		t.Fatalf("expected empty list for another coach, got %d", len(list.Drills))
	}
}

func TestPlayersSeeTheSharedLibrary(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	created, err := svc.Create(ctx, domain.CreateRequest{Title: "Mikan drill", SkillLevel: "beginner"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	playerCtx := playerContext(node)
	got, err := svc.Get(playerCtx, created.ID)
	if err != nil {
		t.Fatalf("player get: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected drill %s", got.ID)
	}

	list, err := svc.List(playerCtx, domain.ListRequest{})
	if err != nil {
		t.Fatalf("player list: %v", err)
	}
	if len(list.Drills) != 1 {
		t.Fatalf("expected shared drill visible to player, got %d", len(list.Drills))
	}
}

func TestUpdateAndDeleteDrill(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	created, err := svc.Create(ctx, domain.CreateRequest{Title: "Pick and roll reads", SkillLevel: "advanced"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Pick and roll coverages"
	minutes := 20
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Title: &title, DurationMinutes: &minutes})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || updated.DurationMinutes != 20 {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	if _, err := svc.Get(ctx, "not-a-number"); err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}
