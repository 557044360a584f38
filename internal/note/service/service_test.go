package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/note/domain"
	"github.com/courtsidehq/courtside/internal/note/repository"
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
	if err := dbConn.AutoMigrate(&domain.Note{}); err != nil {
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

func TestCreateAndGetNote(t *testing.T) {
	svc, node := newTestService(t)
	ctx, principal := coachContext(node)

	playerID := node.Generate().String()
	created, err := svc.Create(ctx, domain.CreateRequest{
		PlayerID: &playerID,
		Body:     "Needs work on closeouts.",
		Pinned:   true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.AuthorID != principal.UserID.String() {
		t.Fatalf("author %s, want %s", created.AuthorID, principal.UserID)
	}
	if created.PlayerID == nil || *created.PlayerID != playerID {
		t.Fatalf("player id %v, want %s", created.PlayerID, playerID)
	}
	if !created.Pinned {
		t.Fatal("expected pinned note")
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Body != "Needs work on closeouts." {
		t.Fatalf("unexpected body %q", got.Body)
	}
}

func TestCreateRequiresBody(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	if _, err := svc.Create(ctx, domain.CreateRequest{Body: "   "}); err != domain.ErrInvalidBody {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}
}

func TestCreateRejectsMalformedSubjectID(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	bad := "abc"
	if _, err := svc.Create(ctx, domain.CreateRequest{PlayerID: &bad, Body: "note"}); err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestNotesAreScopedToAuthor(t *testing.T) {
	svc, node := newTestService(t)
	ctxA, _ := coachContext(node)
	ctxB, _ := coachContext(node)

	created, err := svc.Create(ctxA, domain.CreateRequest{Body: "Private observation."})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctxB, created.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for another author, got %v", err)
	}

	list, err := svc.List(ctxB, domain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Notes) != 0 {
		t.Fatalf("expected empty list for another author, got %d", len(list.Notes))
	}
}

func TestListFiltersByPinned(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	if _, err := svc.Create(ctx, domain.CreateRequest{Body: "Pinned one", Pinned: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreateRequest{Body: "Plain one"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	pinned := true
	list, err := svc.List(ctx, domain.ListRequest{Pinned: &pinned})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Notes) != 1 || list.Notes[0].Body != "Pinned one" {
		t.Fatalf("expected only the pinned note, got %+v", list.Notes)
	}
}

func TestUpdateAndDeleteNote(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	created, err := svc.Create(ctx, domain.CreateRequest{Body: "First draft."})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	body := "Second draft."
	pinned := true
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Body: &body, Pinned: &pinned})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Body != body || !updated.Pinned {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, created.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
