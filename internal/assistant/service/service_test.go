package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/assistant/domain"
	"github.com/courtsidehq/courtside/internal/assistant/repository"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/internal/ratelimit"
	"github.com/courtsidehq/courtside/pkg/db"
)

func newTestService(t *testing.T, cfg config.Config) (domain.Service, *snowflake.Node) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.Conversation{}, &domain.Message{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	holder, err := config.NewAssistantConfigHolder()
	if err != nil {
		t.Fatalf("failed to build assistant config holder: %v", err)
	}

	svc := New(Params{
		DB:      dbConn,
		Log:     zap.NewNop(),
		Cfg:     cfg,
		Holder:  holder,
		GenID:   node,
		Repo:    repository.Provide(),
		Limiter: ratelimit.NewAssistantLimiter(cfg, holder),
	})
	return svc, node
}

func ownerContext(node *snowflake.Node) (context.Context, principalctx.Principal) {
	principal := principalctx.Principal{UserID: node.Generate(), Role: profiledomain.RoleCoach}
	return principalctx.WithPrincipal(context.Background(), principal), principal
}

func TestConversationLifecycle(t *testing.T) {
	svc, node := newTestService(t, config.Config{})
	ctx, _ := ownerContext(node)

	created, err := svc.CreateConversation(ctx, domain.CreateConversationRequest{Title: "  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "New conversation" {
		t.Fatalf("expected default title, got %q", created.Title)
	}

	list, err := svc.ListConversations(ctx, domain.ListConversationsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list.Conversations))
	}

	if err := svc.DeleteConversation(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetConversation(ctx, created.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestConversationsAreScopedToOwner(t *testing.T) {
	svc, node := newTestService(t, config.Config{})
	ctxA, _ := ownerContext(node)
	ctxB, _ := ownerContext(node)

	created, err := svc.CreateConversation(ctxA, domain.CreateConversationRequest{Title: "Practice planning"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetConversation(ctxB, created.ID); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound for another owner, got %v", err)
	}
}

func TestChatWithoutAPIKey(t *testing.T) {
	svc, node := newTestService(t, config.Config{})
	ctx, _ := ownerContext(node)

	created, err := svc.CreateConversation(ctx, domain.CreateConversationRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Chat(ctx, domain.ChatRequest{ConversationID: created.ID, Prompt: "Plan a practice"})
	if err != domain.ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestChatRoundTrip(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Run a shell drill."}}],"usage":{"completion_tokens":7}}`))
	}))
	defer upstream.Close()

	svc, node := newTestService(t, config.Config{
		AssistantAPIKey:  "test-key",
		AssistantBaseURL: upstream.URL,
	})
	ctx, _ := ownerContext(node)

	created, err := svc.CreateConversation(ctx, domain.CreateConversationRequest{Title: "Defense"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reply, err := svc.Chat(ctx, domain.ChatRequest{ConversationID: created.ID, Prompt: "What should we run?"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply.Role != string(domain.RoleAssistant) {
		t.Fatalf("expected assistant reply, got role %s", reply.Role)
	}
	if reply.Content != "Run a shell drill." {
		t.Fatalf("unexpected content %q", reply.Content)
	}
	if reply.TokenCount != 7 {
		t.Fatalf("token count %d, want 7", reply.TokenCount)
	}

	// Both sides of the exchange are persisted on the conversation.
	conversation, err := svc.GetConversation(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(conversation.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(conversation.Messages))
	}
}

func TestChatUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	svc, node := newTestService(t, config.Config{
		AssistantAPIKey:  "test-key",
		AssistantBaseURL: upstream.URL,
	})
	ctx, _ := ownerContext(node)

	created, err := svc.CreateConversation(ctx, domain.CreateConversationRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Chat(ctx, domain.ChatRequest{ConversationID: created.ID, Prompt: "Anything"})
	if err != domain.ErrUpstream {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestChatRejectsEmptyPrompt(t *testing.T) {
	svc, node := newTestService(t, config.Config{AssistantAPIKey: "test-key"})
	ctx, _ := ownerContext(node)

	created, err := svc.CreateConversation(ctx, domain.CreateConversationRequest{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Chat(ctx, domain.ChatRequest{ConversationID: created.ID, Prompt: "   "}); err != domain.ErrInvalidPrompt {
		t.Fatalf("expected ErrInvalidPrompt, got %v", err)
	}
}
