package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, drill *Drill) error
	FindByID(ctx context.Context, db *gorm.DB, coachID, id int64) (*Drill, error)
	List(ctx context.Context, db *gorm.DB, coachID int64, filter ListRequest) ([]*Drill, error)
	ListVisible(ctx context.Context, db *gorm.DB, filter ListRequest) ([]*Drill, error)
	Update(ctx context.Context, db *gorm.DB, drill *Drill) error
	Delete(ctx context.Context, db *gorm.DB, coachID, id int64) error
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
	SkillLevel string `form:"skill_level"`
	Tag        string `form:"tag"`
}

type CreateRequest struct {
	Title           string   `json:"title"`
	Description     *string  `json:"description"`
	SkillLevel      string   `json:"skill_level"`
	Tags            []string `json:"tags"`
	VideoURL        *string  `json:"video_url"`
	DurationMinutes int      `json:"duration_minutes"`
}

type UpdateRequest struct {
	ID              string    `json:"-"`
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	SkillLevel      *string   `json:"skill_level"`
	Tags            *[]string `json:"tags"`
	VideoURL        *string   `json:"video_url"`
	DurationMinutes *int      `json:"duration_minutes"`
}

type Response struct {
	ID              string    `json:"id"`
	CoachID         string    `json:"coach_id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	SkillLevel      string    `json:"skill_level"`
	Tags            []string  `json:"tags,omitempty"`
	VideoURL        *string   `json:"video_url,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Drills []Response `json:"drills"`
}

var (
	ErrInvalidActor      = errors.New("invalid_actor")
	ErrNotFound          = errors.New("drill_not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidSkillLevel = errors.New("invalid_skill_level")
	ErrInvalidDuration   = errors.New("invalid_duration")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
