package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Repository interface {
	CreateConversation(ctx context.Context, db *gorm.DB, conversation *Conversation) error
	FindConversation(ctx context.Context, db *gorm.DB, ownerID, id int64) (*Conversation, error)
	ListConversations(ctx context.Context, db *gorm.DB, ownerID int64, page pagination.Pagination) ([]*Conversation, error)
	TouchConversation(ctx context.Context, db *gorm.DB, id int64, updatedAt time.Time) error
	DeleteConversation(ctx context.Context, db *gorm.DB, ownerID, id int64) error

	AppendMessage(ctx context.Context, db *gorm.DB, message *Message) error
	ListMessages(ctx context.Context, db *gorm.DB, conversationID int64) ([]*Message, error)
	RecentMessages(ctx context.Context, db *gorm.DB, conversationID int64, limit int) ([]*Message, error)
}

type Service interface {
	CreateConversation(ctx context.Context, req CreateConversationRequest) (*ConversationResponse, error)
	GetConversation(ctx context.Context, id string) (*ConversationResponse, error)
	ListConversations(ctx context.Context, req ListConversationsRequest) (ListConversationsResponse, error)
	DeleteConversation(ctx context.Context, id string) error
	Chat(ctx context.Context, req ChatRequest) (*MessageResponse, error)
}

type CreateConversationRequest struct {
	Title string `json:"title"`
}

type ListConversationsRequest struct {
	pagination.Pagination
}

type ChatRequest struct {
	ConversationID string `json:"-"`
	Prompt         string `json:"prompt"`
}

type ConversationResponse struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"owner_id"`
	Title     string            `json:"title"`
	Messages  []MessageResponse `json:"messages,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	TokenCount     int       `json:"token_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListConversationsResponse struct {
	pagination.PageInfo
	Conversations []ConversationResponse `json:"conversations"`
}

var (
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrNotFound      = errors.New("conversation_not_found")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidPrompt = errors.New("invalid_prompt")
	ErrRateLimited   = errors.New("rate_limited")
	ErrNotConfigured = errors.New("assistant_not_configured")
	ErrUpstream      = errors.New("assistant_upstream_error")
)
