package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/activity/repository"
	"github.com/courtsidehq/courtside/pkg/db"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

func newTestService(t *testing.T) (domain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.ActivityEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	svc := NewService(Params{DB: dbConn, Log: zap.NewNop(), Repo: repository.Provide()})
	return svc, node
}

func TestRecordAndList(t *testing.T) {
	svc, node := newTestService(t)
	actor := node.Generate()
	targetID := "drill-1"

	if err := svc.Record(context.Background(), actor, "coach", "drill.create", "drill", &targetID, map[string]any{"title": "3-man weave"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.Record(context.Background(), actor, "coach", "drill.delete", "drill", &targetID, nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	resp, err := svc.List(context.Background(), domain.ListActivityRequest{ActorID: actor})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	for _, event := range resp.Events {
		if event.ActorID != actor {
			t.Fatalf("event actor %v, want %v", event.ActorID, actor)
		}
	}
}

func TestListFiltersByAction(t *testing.T) {
	svc, node := newTestService(t)
	actor := node.Generate()

	if err := svc.Record(context.Background(), actor, "coach", "team.create", "team", nil, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.Record(context.Background(), actor, "coach", "team.update", "team", nil, nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	resp, err := svc.List(context.Background(), domain.ListActivityRequest{ActorID: actor, Action: "team.update"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Action != "team.update" {
		t.Fatalf("expected one team.update event, got %+v", resp.Events)
	}
}

func TestListIsScopedToActor(t *testing.T) {
	svc, node := newTestService(t)
	alice := node.Generate()
	bob := node.Generate()

	if err := svc.Record(context.Background(), alice, "coach", "drill.create", "drill", nil, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := svc.Record(context.Background(), bob, "player", "goal.progress", "goal", nil, nil); err != nil {
		t.Fatalf("record: %v", err)
	}

	resp, err := svc.List(context.Background(), domain.ListActivityRequest{ActorID: bob})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].Action != "goal.progress" {
		t.Fatalf("expected only bob's event, got %+v", resp.Events)
	}
}

func TestRecordRejectsMissingActor(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Record(context.Background(), 0, "coach", "drill.create", "drill", nil, nil); err != domain.ErrInvalidActor {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}
}

func TestListRejectsBadPageToken(t *testing.T) {
	svc, node := newTestService(t)

	_, err := svc.List(context.Background(), domain.ListActivityRequest{
		ActorID:    node.Generate(),
		Pagination: pagination.Pagination{PageToken: "not-base64!"},
	})
	if err != domain.ErrInvalidPageToken {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}
}

func TestListRejectsInvertedTimeRange(t *testing.T) {
	svc, node := newTestService(t)

	later := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.List(context.Background(), domain.ListActivityRequest{
		ActorID: node.Generate(),
		StartAt: &later,
		EndAt:   &earlier,
	})
	if err != domain.ErrInvalidTimeRange {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}
