package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, announcement *Announcement) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Announcement, error)
	ListByTeams(ctx context.Context, db *gorm.DB, teamIDs []int64, filter ListRequest) ([]*Announcement, error)
	Update(ctx context.Context, db *gorm.DB, announcement *Announcement) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
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
	TeamID string `form:"team_id"`
	Pinned *bool  `form:"pinned"`
}

type CreateRequest struct {
	TeamID  string `json:"team_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Pinned  bool   `json:"pinned"`
	Publish bool   `json:"publish"`
}

type UpdateRequest struct {
	ID      string  `json:"-"`
	Title   *string `json:"title"`
	Body    *string `json:"body"`
	Pinned  *bool   `json:"pinned"`
	Publish *bool   `json:"publish"`
}

type Response struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	AuthorID    string     `json:"author_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Pinned      bool       `json:"pinned"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Announcements []Response `json:"announcements"`
}

var (
	ErrInvalidActor = errors.New("invalid_actor")
	ErrNotFound     = errors.New("announcement_not_found")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidTitle = errors.New("invalid_title")
	ErrInvalidBody  = errors.New("invalid_body")
	ErrInvalidTeam  = errors.New("invalid_team")
)
