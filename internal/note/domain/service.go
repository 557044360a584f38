package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, note *Note) error
	FindByID(ctx context.Context, db *gorm.DB, authorID, id int64) (*Note, error)
	List(ctx context.Context, db *gorm.DB, authorID int64, filter ListRequest) ([]*Note, error)
	Update(ctx context.Context, db *gorm.DB, note *Note) error
	Delete(ctx context.Context, db *gorm.DB, authorID, id int64) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	pagination.Pagination
	PlayerID string `form:"player_id"`
	TeamID   string `form:"team_id"`
	Pinned   *bool  `form:"pinned"`
}

type CreateRequest struct {
	PlayerID *string `json:"player_id"`
	TeamID   *string `json:"team_id"`
	Body     string  `json:"body"`
	Pinned   bool    `json:"pinned"`
}

type UpdateRequest struct {
	ID     string  `json:"-"`
	Body   *string `json:"body"`
	Pinned *bool   `json:"pinned"`
}

type Response struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	PlayerID  *string   `json:"player_id,omitempty"`
	TeamID    *string   `json:"team_id,omitempty"`
	Body      string    `json:"body"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Notes []Response `json:"notes"`
}

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrNotFound     = errors.New("note_not_found")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidBody  = errors.New("invalid_body")
)
