package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	drilldomain "github.com/courtsidehq/courtside/internal/drill/domain"
	drillrepository "github.com/courtsidehq/courtside/internal/drill/repository"
	"github.com/courtsidehq/courtside/internal/practice/domain"
	"github.com/courtsidehq/courtside/internal/practice/repository"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/internal/providers/pdf"
	teamdomain "github.com/courtsidehq/courtside/internal/team/domain"
	teamrepository "github.com/courtsidehq/courtside/internal/team/repository"
	"github.com/courtsidehq/courtside/pkg/db"
)

type testEnv struct {
	svc      domain.Service
	db       *gorm.DB
	drills   drilldomain.Repository
	node     *snowflake.Node
	coachCtx context.Context
	coach    principalctx.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&domain.PracticeSession{}, &domain.PracticeDrill{},
		&drilldomain.Drill{},
		&teamdomain.Team{}, &teamdomain.TeamMember{}, &teamdomain.TeamInvite{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		DB:        dbConn,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		DrillRepo: drillrepository.Provide(),
		TeamRepo:  teamrepository.Provide(),
		PDF:       pdf.New(),
	})

	coach := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}
	return &testEnv{
		svc:      svc,
		db:       dbConn,
		drills:   drillrepository.Provide(),
		node:     node,
		coachCtx: principalctx.WithPrincipal(context.Background(), coach),
		coach:    coach,
	}
}

func (e *testEnv) createPractice(t *testing.T) *domain.Response {
	t.Helper()
	created, err := e.svc.Create(e.coachCtx, domain.CreateRequest{
		Title:           "Tuesday practice",
		ScheduledAt:     time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC),
		DurationMinutes: 90,
		FocusAreas:      []string{"defense", "transition"},
	})
	if err != nil {
		t.Fatalf("create practice: %v", err)
	}
	return created
}

func TestCreatePracticeValidation(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Create(env.coachCtx, domain.CreateRequest{Title: " ", ScheduledAt: time.Now()}); err != domain.ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := env.svc.Create(env.coachCtx, domain.CreateRequest{Title: "Practice"}); err != domain.ErrInvalidSchedule {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}
}

func TestCreatePracticeRejectsForeignTeam(t *testing.T) {
	env := newTestEnv(t)
	otherTeam := env.node.Generate().String()

	_, err := env.svc.Create(env.coachCtx, domain.CreateRequest{
		Title:       "Practice",
		ScheduledAt: time.Now().UTC(),
		TeamID:      &otherTeam,
	})
	if err != domain.ErrInvalidID {
		t.Fatalf("expected ErrInvalidID for unknown team, got %v", err)
	}
}

func TestAttachDrillsReplacesPlan(t *testing.T) {
	env := newTestEnv(t)
	practice := env.createPractice(t)

	drill := &drilldomain.Drill{
		ID:         env.node.Generate().Int64(),
		CoachID:    env.coach.UserID.Int64(),
		Title:      "Shell drill",
		SkillLevel: "intermediate",
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := env.drills.Create(env.coachCtx, env.db, drill); err != nil {
		t.Fatalf("seed drill: %v", err)
	}

	updated, err := env.svc.AttachDrills(env.coachCtx, domain.AttachDrillsRequest{
		ID: practice.ID,
		Drills: []domain.DrillAttachment{
			{DrillID: snowflake.ID(drill.ID).String(), Minutes: 10},
		},
	})
	if err != nil {
		t.Fatalf("attach drills: %v", err)
	}
	if len(updated.Drills) != 1 {
		t.Fatalf("expected 1 attached drill, got %d", len(updated.Drills))
	}
	if updated.Drills[0].Position != 1 || updated.Drills[0].Minutes != 10 {
		t.Fatalf("unexpected attachment %+v", updated.Drills[0])
	}
}

func TestAttachDrillsRejectsForeignDrill(t *testing.T) {
	env := newTestEnv(t)
	practice := env.createPractice(t)

	_, err := env.svc.AttachDrills(env.coachCtx, domain.AttachDrillsRequest{
		ID: practice.ID,
		Drills: []domain.DrillAttachment{
			{DrillID: env.node.Generate().String(), Minutes: 10},
		},
	})
	if err != domain.ErrInvalidDrill {
		t.Fatalf("expected ErrInvalidDrill, got %v", err)
	}
}

func TestExportPDFProducesDocument(t *testing.T) {
	env := newTestEnv(t)
	practice := env.createPractice(t)

	doc, err := env.svc.ExportPDF(env.coachCtx, practice.ID)
	if err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	data, err := io.ReadAll(doc)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Fatalf("expected a PDF document, got %d bytes", len(data))
	}
}

func TestUpdateAndDeletePractice(t *testing.T) {
	env := newTestEnv(t)
	practice := env.createPractice(t)

	title := "Wednesday practice"
	updated, err := env.svc.Update(env.coachCtx, domain.UpdateRequest{ID: practice.ID, Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("update not applied: %s", updated.Title)
	}

	if err := env.svc.Delete(env.coachCtx, practice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.svc.Get(env.coachCtx, practice.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
