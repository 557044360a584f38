package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/announcement/domain"
	"github.com/courtsidehq/courtside/internal/announcement/repository"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	teamdomain "github.com/courtsidehq/courtside/internal/team/domain"
	teamrepository "github.com/courtsidehq/courtside/internal/team/repository"
	"github.com/courtsidehq/courtside/pkg/db"
	"gorm.io/gorm"
)

type testEnv struct {
	svc      domain.Service
	db       *gorm.DB
	teams    teamdomain.Repository
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
		&domain.Announcement{},
		&teamdomain.Team{}, &teamdomain.TeamMember{}, &teamdomain.TeamInvite{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	teams := teamrepository.Provide()
	svc := New(Params{
		DB:       dbConn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		TeamRepo: teams,
	})

	coach := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}
	return &testEnv{
		svc:      svc,
		db:       dbConn,
		teams:    teams,
		node:     node,
		coachCtx: principalctx.WithPrincipal(context.Background(), coach),
		coach:    coach,
	}
}

func (e *testEnv) seedTeam(t *testing.T) *teamdomain.Team {
	t.Helper()
	team := &teamdomain.Team{
		ID:         e.node.Generate().Int64(),
		CoachID:    e.coach.UserID.Int64(),
		Name:       "Hawks",
		Slug:       "hawks",
		InviteCode: "HAWKS1",
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := e.teams.Create(context.Background(), e.db, team); err != nil {
		t.Fatalf("seed team: %v", err)
	}
	return team
}

func (e *testEnv) addPlayer(t *testing.T, team *teamdomain.Team) (context.Context, principalctx.Principal) {
	t.Helper()
	player := principalctx.Principal{UserID: e.node.Generate(), Role: profiledomain.RolePlayer}
	member := &teamdomain.TeamMember{
		ID:       e.node.Generate().Int64(),
		TeamID:   team.ID,
		PlayerID: player.UserID.Int64(),
		JoinedAt: time.Now().UTC(),
	}
	if err := e.teams.AddMember(context.Background(), e.db, member); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return principalctx.WithPrincipal(context.Background(), player), player
}

func TestCreateAnnouncementRequiresOwnedTeam(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.coachCtx, domain.CreateRequest{
		TeamID: env.node.Generate().String(),
		Title:  "Game day",
		Body:   "Bus leaves at 4pm.",
	})
	if err != domain.ErrInvalidTeam {
		t.Fatalf("expected ErrInvalidTeam, got %v", err)
	}
}

func TestCreateDraftAndPublish(t *testing.T) {
	env := newTestEnv(t)
	team := env.seedTeam(t)

	draft, err := env.svc.Create(env.coachCtx, domain.CreateRequest{
		TeamID: snowflake.ID(team.ID).String(),
		Title:  "Game day",
		Body:   "Bus leaves at 4pm.",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if draft.PublishedAt != nil {
		t.Fatal("expected draft to be unpublished")
	}

	publish := true
	published, err := env.svc.Update(env.coachCtx, domain.UpdateRequest{ID: draft.ID, Publish: &publish})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.PublishedAt == nil {
		t.Fatal("expected published timestamp")
	}
}

func TestPlayersOnlySeePublishedAnnouncements(t *testing.T) {
	env := newTestEnv(t)
	team := env.seedTeam(t)
	playerCtx, _ := env.addPlayer(t, team)

	draft, err := env.svc.Create(env.coachCtx, domain.CreateRequest{
		TeamID: snowflake.ID(team.ID).String(),
		Title:  "Draft",
		Body:   "Not ready yet.",
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := env.svc.Create(env.coachCtx, domain.CreateRequest{
		TeamID:  snowflake.ID(team.ID).String(),
		Title:   "Published",
		Body:    "Practice moved to 6pm.",
		Publish: true,
	}); err != nil {
		t.Fatalf("create published: %v", err)
	}

	list, err := env.svc.List(playerCtx, domain.ListRequest{})
	if err != nil {
		t.Fatalf("player list: %v", err)
	}
	if len(list.Announcements) != 1 || list.Announcements[0].Title != "Published" {
		t.Fatalf("expected only the published announcement, got %+v", list.Announcements)
	}

	if _, err := env.svc.Get(playerCtx, draft.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for a draft, got %v", err)
	}

	coachList, err := env.svc.List(env.coachCtx, domain.ListRequest{})
	if err != nil {
		t.Fatalf("coach list: %v", err)
	}
	if len(coachList.Announcements) != 2 {
		t.Fatalf("expected coach to see both, got %d", len(coachList.Announcements))
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	team := env.seedTeam(t)

	if _, err := env.svc.Create(env.coachCtx, domain.CreateRequest{
		TeamID: snowflake.ID(team.ID).String(),
		Title:  " ",
		Body:   "body",
	}); err != domain.ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := env.svc.Create(env.coachCtx, domain.CreateRequest{
		TeamID: snowflake.ID(team.ID).String(),
		Title:  "title",
		Body:   "  ",
	}); err != domain.ErrInvalidBody {
		t.Fatalf("expected ErrInvalidBody, got %v", err)
	}
}
