package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/assistant/domain"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/observability/metrics"
	obstracing "github.com/courtsidehq/courtside/internal/observability/tracing"
	"github.com/courtsidehq/courtside/internal/principalctx"
	"github.com/courtsidehq/courtside/internal/ratelimit"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

const upstreamTimeout = 60 * time.Second

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Holder   *config.AssistantConfigHolder
	GenID    *snowflake.Node
	Repo     domain.Repository
	Limiter  *ratelimit.AssistantLimiter
	Metrics  *metrics.Metrics       `optional:"true"`
	Activity activitydomain.Service `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	holder     *config.AssistantConfigHolder
	genID      *snowflake.Node
	repo       domain.Repository
	limiter    *ratelimit.AssistantLimiter
	metrics    *metrics.Metrics
	activity   activitydomain.Service
	httpClient *http.Client
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("assistant.service"),
		cfg:      p.Cfg,
		holder:   p.Holder,
		genID:    p.GenID,
		repo:     p.Repo,
		limiter:  p.Limiter,
		metrics:  p.Metrics,
		activity: p.Activity,
		httpClient: obstracing.WrapHTTPClient(&http.Client{
			Timeout: upstreamTimeout,
		}),
	}
}

func (s *Service) CreateConversation(ctx context.Context, req domain.CreateConversationRequest) (*domain.ConversationResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New conversation"
	}

	now := time.Now().UTC()
	c := &domain.Conversation{
		ID:        s.genID.Generate().Int64(),
		OwnerID:   principal.UserID.Int64(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateConversation(ctx, s.db, c); err != nil {
		return nil, err
	}

	resp := toConversationResponse(c, nil)
	return &resp, nil
}

func (s *Service) GetConversation(ctx context.Context, id string) (*domain.ConversationResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	conversation, err := s.ownedConversation(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, s.db, conversation.ID)
	if err != nil {
		return nil, err
	}

	resp := toConversationResponse(conversation, messages)
	return &resp, nil
}

func (s *Service) ListConversations(ctx context.Context, req domain.ListConversationsRequest) (domain.ListConversationsResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ListConversationsResponse{}, domain.ErrInvalidActor
	}

	items, err := s.repo.ListConversations(ctx, s.db, principal.UserID.Int64(), req.Pagination)
	if err != nil {
		return domain.ListConversationsResponse{}, err
	}

	size := req.PageSize
	if size <= 0 {
		size = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(size), func(item *domain.Conversation) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(item.ID).String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > size {
		items = items[:size]
	}

	conversations := make([]domain.ConversationResponse, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		conversations = append(conversations, toConversationResponse(item, nil))
	}

	resp := domain.ListConversationsResponse{Conversations: conversations}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	conversation, err := s.ownedConversation(ctx, principal, id)
	if err != nil {
		return err
	}

	return s.repo.DeleteConversation(ctx, s.db, principal.UserID.Int64(), conversation.ID)
}

func (s *Service) Chat(ctx context.Context, req domain.ChatRequest) (*domain.MessageResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.ErrInvalidPrompt
	}
	if strings.TrimSpace(s.cfg.AssistantAPIKey) == "" {
		return nil, domain.ErrNotConfigured
	}

	limit, err := s.limiter.AllowUser(ctx, principal.UserID.String())
	if err != nil {
		s.log.Warn("assistant rate limit check failed", zap.Error(err))
	} else if !limit.Allowed {
		if s.metrics != nil {
			s.metrics.RecordRateLimitDenied(ctx, "assistant.chat", "user_quota")
		}
		return nil, domain.ErrRateLimited
	}
	if s.metrics != nil && err == nil {
		s.metrics.RecordRateLimitAllowed(ctx, "assistant.chat")
	}

	conversation, err := s.ownedConversation(ctx, principal, req.ConversationID)
	if err != nil {
		return nil, err
	}

	assistantCfg := s.holder.Current()

	history, err := s.repo.RecentMessages(ctx, s.db, conversation.ID, assistantCfg.HistoryMessages)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	userMessage := &domain.Message{
		ID:             s.genID.Generate().Int64(),
		ConversationID: conversation.ID,
		Role:           string(domain.RoleUser),
		Content:        prompt,
		CreatedAt:      now,
	}
	if err := s.repo.AppendMessage(ctx, s.db, userMessage); err != nil {
		return nil, err
	}

	content, tokenCount, err := s.complete(ctx, assistantCfg, history, prompt)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordAssistantRequest(ctx, "error")
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordAssistantRequest(ctx, "ok")
	}

	assistantMessage := &domain.Message{
		ID:             s.genID.Generate().Int64(),
		ConversationID: conversation.ID,
		Role:           string(domain.RoleAssistant),
		Content:        content,
		TokenCount:     tokenCount,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.AppendMessage(ctx, s.db, assistantMessage); err != nil {
		return nil, err
	}

	if err := s.repo.TouchConversation(ctx, s.db, conversation.ID, assistantMessage.CreatedAt); err != nil {
		s.log.Warn("failed to touch conversation", zap.Error(err))
	}

	if s.activity != nil {
		targetID := snowflake.ID(conversation.ID).String()
		if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), "assistant.chat", "conversation", &targetID, nil); err != nil {
			s.log.Warn("failed to record assistant activity", zap.Error(err))
		}
	}

	resp := toMessageResponse(assistantMessage)
	return &resp, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (s *Service) complete(ctx context.Context, assistantCfg config.AssistantConfig, history []*domain.Message, prompt string) (string, int, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	if systemPrompt := strings.TrimSpace(assistantCfg.SystemPrompt); systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range history {
		if m == nil {
			continue
		}
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(chatCompletionRequest{
		Model:       assistantCfg.Model,
		Messages:    messages,
		MaxTokens:   assistantCfg.MaxTokens,
		Temperature: assistantCfg.Temperature,
	})
	if err != nil {
		return "", 0, err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", s.cfg.AssistantBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AssistantAPIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, domain.ErrUpstream
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, domain.ErrUpstream
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Warn("assistant upstream returned non-2xx",
			zap.Int("status", resp.StatusCode),
		)
		return "", 0, domain.ErrUpstream
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, domain.ErrUpstream
	}
	if len(parsed.Choices) == 0 {
		return "", 0, domain.ErrUpstream
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", 0, domain.ErrUpstream
	}
	return content, parsed.Usage.CompletionTokens, nil
}

func (s *Service) ownedConversation(ctx context.Context, principal principalctx.Principal, id string) (*domain.Conversation, error) {
	conversationID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	conversation, err := s.repo.FindConversation(ctx, s.db, principal.UserID.Int64(), conversationID.Int64())
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, domain.ErrNotFound
	}
	return conversation, nil
}

func toConversationResponse(c *domain.Conversation, messages []*domain.Message) domain.ConversationResponse {
	resp := domain.ConversationResponse{
		ID:        snowflake.ID(c.ID).String(),
		OwnerID:   snowflake.ID(c.OwnerID).String(),
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, m := range messages {
		if m == nil {
			continue
		}
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}
	return resp
}

func toMessageResponse(m *domain.Message) domain.MessageResponse {
	return domain.MessageResponse{
		ID:             snowflake.ID(m.ID).String(),
		ConversationID: snowflake.ID(m.ConversationID).String(),
		Role:           m.Role,
		Content:        m.Content,
		TokenCount:     m.TokenCount,
		CreatedAt:      m.CreatedAt,
	}
}
