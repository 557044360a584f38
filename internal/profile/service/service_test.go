package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/internal/profile/repository"
	"github.com/courtsidehq/courtside/pkg/db"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Record{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(Params{Log: zap.NewNop(), Repo: repository.New(dbConn)}), node
}

func TestCreateCoachProfile(t *testing.T) {
	svc, node := newTestService(t)
	id := node.Generate()

	profile, err := svc.Create(context.Background(), id, domain.CreateInput{
		Email:        "coach@example.com",
		DisplayName:  "Coach Carter",
		Role:         domain.RoleCoach,
		Organization: "Richmond High",
		Position:     "should be ignored for coaches",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if profile.Role != domain.RoleCoach {
		t.Fatalf("expected coach role, got %s", profile.Role)
	}
	if profile.Coach == nil || profile.Coach.Organization != "Richmond High" {
		t.Fatalf("expected coach attributes, got %+v", profile.Coach)
	}
	if profile.Player != nil {
		t.Fatalf("coach profile must not carry player attributes")
	}
}

func TestCreatePlayerProfile(t *testing.T) {
	svc, node := newTestService(t)
	id := node.Generate()
	coachID := node.Generate()

	profile, err := svc.Create(context.Background(), id, domain.CreateInput{
		Email:       "player@example.com",
		DisplayName: "Point Guard",
		Role:        domain.RolePlayer,
		Position:    "PG",
		CoachID:     &coachID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if profile.Player == nil || profile.Player.Position != "PG" {
		t.Fatalf("expected player attributes, got %+v", profile.Player)
	}
	if profile.Player.CoachID == nil || *profile.Player.CoachID != coachID {
		t.Fatalf("expected coach id %v, got %v", coachID, profile.Player.CoachID)
	}
	if profile.Coach != nil {
		t.Fatalf("player profile must not carry coach attributes")
	}
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc, node := newTestService(t)

	_, err := svc.Create(context.Background(), node.Generate(), domain.CreateInput{
		Email:       "someone@example.com",
		DisplayName: "Someone",
		Role:        domain.Role("referee"),
	})
	if err != domain.ErrInvalidRole {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestCreateDuplicateProfile(t *testing.T) {
	svc, node := newTestService(t)
	id := node.Generate()

	input := domain.CreateInput{
		Email:       "coach@example.com",
		DisplayName: "Coach",
		Role:        domain.RoleCoach,
	}
	if _, err := svc.Create(context.Background(), id, input); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), id, input); err != domain.ErrProfileExists {
		t.Fatalf("expected ErrProfileExists, got %v", err)
	}
}

func TestGetMissingProfile(t *testing.T) {
	svc, node := newTestService(t)

	if _, err := svc.Get(context.Background(), node.Generate()); err != domain.ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestUpdateIgnoresAttributesOfOtherRole(t *testing.T) {
	svc, node := newTestService(t)
	id := node.Generate()

	if _, err := svc.Create(context.Background(), id, domain.CreateInput{
		Email:        "coach@example.com",
		DisplayName:  "Coach",
		Role:         domain.RoleCoach,
		Organization: "Old Org",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Renamed Coach"
	org := "New Org"
	pos := "PG"
	profile, err := svc.Update(context.Background(), id, domain.UpdatePatch{
		DisplayName:  &name,
		Organization: &org,
		Position:     &pos,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.DisplayName != "Renamed Coach" {
		t.Fatalf("expected renamed profile, got %s", profile.DisplayName)
	}
	if profile.Coach == nil || profile.Coach.Organization != "New Org" {
		t.Fatalf("expected updated organization, got %+v", profile.Coach)
	}
	if profile.Player != nil {
		t.Fatalf("position patch must not attach player attributes to a coach")
	}
	if profile.Role != domain.RoleCoach {
		t.Fatalf("role changed to %s", profile.Role)
	}
}
