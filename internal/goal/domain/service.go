package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, goal *Goal) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Goal, error)
	ListByPlayer(ctx context.Context, db *gorm.DB, playerID int64, filter ListRequest) ([]*Goal, error)
	ListByCoach(ctx context.Context, db *gorm.DB, coachID int64, filter ListRequest) ([]*Goal, error)
	Update(ctx context.Context, db *gorm.DB, goal *Goal) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error

	AddProgress(ctx context.Context, db *gorm.DB, entry *ProgressEntry) error
	ListProgress(ctx context.Context, db *gorm.DB, goalID int64) ([]*ProgressEntry, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	AddProgress(ctx context.Context, req AddProgressRequest) (*ProgressResponse, error)
	ListProgress(ctx context.Context, id string) ([]ProgressResponse, error)
}

type ListRequest struct {
	pagination.Pagination
	Status string `form:"status"`
}

type CreateRequest struct {
	PlayerID    *string    `json:"player_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	TargetDate  *time.Time `json:"target_date"`
}

type UpdateRequest struct {
	ID          string     `json:"-"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	TargetDate  *time.Time `json:"target_date"`
	Status      *string    `json:"status"`
}

type AddProgressRequest struct {
	ID      string  `json:"-"`
	Percent int     `json:"percent"`
	Comment *string `json:"comment"`
}

type Response struct {
	ID          string     `json:"id"`
	PlayerID    string     `json:"player_id"`
	CoachID     *string    `json:"coach_id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ProgressResponse struct {
	ID         string    `json:"id"`
	GoalID     string    `json:"goal_id"`
	Percent    int       `json:"percent"`
	Comment    *string   `json:"comment,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Goals []Response `json:"goals"`
}

var (
	ErrInvalidActor      = errors.New("invalid_actor")
	ErrNotFound          = errors.New("goal_not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrInvalidPercent    = errors.New("invalid_percent")
)
