package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/internal/providers/email"
	"github.com/courtsidehq/courtside/internal/team/domain"
	"github.com/courtsidehq/courtside/internal/team/repository"
	"github.com/courtsidehq/courtside/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Team{}, &domain.TeamMember{}, &domain.TeamInvite{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		Cfg:   config.Config{PublicBaseURL: "http://localhost:8080"},
		GenID: node,
		Repo:  repository.Provide(),
		Email: &email.NoOpProvider{},
	})
	return svc, node
}

func coachContext(node *snowflake.Node) (context.Context, principalctx.Principal) {
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}
	return principalctx.WithPrincipal(context.Background(), principal), principal
}

func playerContext(node *snowflake.Node) (context.Context, principalctx.Principal) {
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RolePlayer}
	return principalctx.WithPrincipal(context.Background(), principal), principal
}

func TestCreateTeamGeneratesSlugAndInviteCode(t *testing.T) {
	svc, node := newTestService(t)
	ctx, principal := coachContext(node)

	season := "2026-27"
	team, err := svc.Create(ctx, domain.CreateRequest{Name: "Varsity Hawks", Season: &season})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if team.CoachID != principal.UserID.String() {
		t.Fatalf("coach id %s, want %s", team.CoachID, principal.UserID)
	}
	if team.Slug == "" {
		t.Fatal("expected slug")
	}
	if team.InviteCode == "" {
		t.Fatal("expected invite code")
	}
}

func TestCreateTeamRequiresName(t *testing.T) {
	svc, node := newTestService(t)
	ctx, _ := coachContext(node)

	if _, err := svc.Create(ctx, domain.CreateRequest{Name: "   "}); err != domain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestJoinByInviteCode(t *testing.T) {
	svc, node := newTestService(t)
	coachCtx, _ := coachContext(node)

	team, err := svc.Create(coachCtx, domain.CreateRequest{Name: "JV Hawks"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	playerCtx, player := playerContext(node)
	jersey := 23
	joined, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: team.InviteCode, JerseyNumber: &jersey})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.ID != team.ID {
		t.Fatalf("joined %s, want %s", joined.ID, team.ID)
	}

	roster, err := svc.Roster(coachCtx, team.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected 1 member, got %d", len(roster))
	}
	if roster[0].PlayerID != player.UserID.String() {
		t.Fatalf("member %s, want %s", roster[0].PlayerID, player.UserID)
	}
	if roster[0].JerseyNumber == nil || *roster[0].JerseyNumber != 23 {
		t.Fatalf("expected jersey 23, got %v", roster[0].JerseyNumber)
	}
}

func TestJoinTwiceIsRejected(t *testing.T) {
	svc, node := newTestService(t)
	coachCtx, _ := coachContext(node)

	team, err := svc.Create(coachCtx, domain.CreateRequest{Name: "JV Hawks"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	playerCtx, _ := playerContext(node)
	if _, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: team.InviteCode}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: team.InviteCode}); err != domain.ErrAlreadyMember {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestJoinWithUnknownCode(t *testing.T) {
	svc, node := newTestService(t)
	playerCtx, _ := playerContext(node)

	if _, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: "nope"}); err != domain.ErrInvalidInviteCode {
		t.Fatalf("expected ErrInvalidInviteCode, got %v", err)
	}
}

func TestRotateInviteCodeInvalidatesOldCode(t *testing.T) {
	svc, node := newTestService(t)
	coachCtx, _ := coachContext(node)

	team, err := svc.Create(coachCtx, domain.CreateRequest{Name: "Hawks"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldCode := team.InviteCode

	rotated, err := svc.RotateInviteCode(coachCtx, team.ID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.InviteCode == oldCode {
		t.Fatal("expected a fresh invite code")
	}

	playerCtx, _ := playerContext(node)
	if _, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: oldCode}); err != domain.ErrInvalidInviteCode {
		t.Fatalf("expected old code to be dead, got %v", err)
	}
	if _, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: rotated.InviteCode}); err != nil {
		t.Fatalf("join with rotated code: %v", err)
	}
}

func TestRemovePlayerFromRoster(t *testing.T) {
	svc, node := newTestService(t)
	coachCtx, _ := coachContext(node)

	team, err := svc.Create(coachCtx, domain.CreateRequest{Name: "Hawks"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	playerCtx, player := playerContext(node)
	if _, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: team.InviteCode}); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.RemovePlayer(coachCtx, team.ID, player.UserID.String()); err != nil {
		t.Fatalf("remove player: %v", err)
	}
	roster, err := svc.Roster(coachCtx, team.ID)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 0 {
		t.Fatalf("expected empty roster, got %d", len(roster))
	}
}

func TestInviteRejectsMalformedEmail(t *testing.T) {
	svc, node := newTestService(t)
	coachCtx, _ := coachContext(node)

	team, err := svc.Create(coachCtx, domain.CreateRequest{Name: "Hawks"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.Invite(coachCtx, domain.InviteRequest{TeamID: team.ID, Emails: []string{"not-an-email"}})
	if err != domain.ErrInvalidEmail {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestPlayersListTheirTeams(t *testing.T) {
	svc, node := newTestService(t)
	coachCtx, _ := coachContext(node)

	team, err := svc.Create(coachCtx, domain.CreateRequest{Name: "Hawks"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(coachCtx, domain.CreateRequest{Name: "Falcons"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	playerCtx, _ := playerContext(node)
	if _, err := svc.JoinByInviteCode(playerCtx, domain.JoinRequest{InviteCode: team.InviteCode}); err != nil {
		t.Fatalf("join: %v", err)
	}

	list, err := svc.List(playerCtx, domain.ListRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Teams) != 1 || list.Teams[0].ID != team.ID {
		t.Fatalf("expected only the joined team, got %+v", list.Teams)
	}

	coachList, err := svc.List(coachCtx, domain.ListRequest{})
	if err != nil {
		t.Fatalf("coach list: %v", err)
	}
	if len(coachList.Teams) != 2 {
		t.Fatalf("expected 2 coached teams, got %d", len(coachList.Teams))
	}
}
