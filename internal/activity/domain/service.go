package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type ListActivityRequest struct {
	pagination.Pagination
	ActorID    snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListActivityResponse struct {
	pagination.PageInfo
	Events []ActivityEvent `json:"events"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *ActivityEvent) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*ActivityEvent, error)
}

type Service interface {
	Record(ctx context.Context, actorID snowflake.ID, actorRole string, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListActivityRequest) (ListActivityResponse, error)
}

var (
	ErrInvalidActor     = errors.New("invalid_actor")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
