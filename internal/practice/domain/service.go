package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, session *PracticeSession) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*PracticeSession, error)
	ListByCoach(ctx context.Context, db *gorm.DB, coachID int64, filter ListRequest) ([]*PracticeSession, error)
	ListByTeams(ctx context.Context, db *gorm.DB, teamIDs []int64, filter ListRequest) ([]*PracticeSession, error)
	Update(ctx context.Context, db *gorm.DB, session *PracticeSession) error
	Delete(ctx context.Context, db *gorm.DB, coachID, id int64) error

	ReplaceDrills(ctx context.Context, db *gorm.DB, practiceID int64, drills []*PracticeDrill) error
	ListDrills(ctx context.Context, db *gorm.DB, practiceID int64) ([]*PracticeDrill, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	AttachDrills(ctx context.Context, req AttachDrillsRequest) (*Response, error)
	ExportPDF(ctx context.Context, id string) (io.Reader, error)
}

type ListRequest struct {
	pagination.Pagination
	TeamID string     `form:"team_id"`
	From   *time.Time `form:"from" time_format:"2006-01-02"`
	To     *time.Time `form:"to" time_format:"2006-01-02"`
}

type CreateRequest struct {
	TeamID          *string   `json:"team_id"`
	Title           string    `json:"title"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	FocusAreas      []string  `json:"focus_areas"`
	Notes           *string   `json:"notes"`
}

type UpdateRequest struct {
	ID              string     `json:"-"`
	Title           *string    `json:"title"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes"`
	FocusAreas      *[]string  `json:"focus_areas"`
	Notes           *string    `json:"notes"`
}

type AttachDrillsRequest struct {
	ID     string            `json:"-"`
	Drills []DrillAttachment `json:"drills"`
}

type DrillAttachment struct {
	DrillID string `json:"drill_id"`
	Minutes int    `json:"minutes"`
}

type DrillResponse struct {
	DrillID  string `json:"drill_id"`
	Position int    `json:"position"`
	Minutes  int    `json:"minutes"`
}

type Response struct {
	ID              string          `json:"id"`
	CoachID         string          `json:"coach_id"`
	TeamID          *string         `json:"team_id,omitempty"`
	Title           string          `json:"title"`
	ScheduledAt     time.Time       `json:"scheduled_at"`
	DurationMinutes int             `json:"duration_minutes"`
	FocusAreas      []string        `json:"focus_areas,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	Drills          []DrillResponse `json:"drills,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Practices []Response `json:"practices"`
}

var (
	ErrInvalidActor    = errors.New("invalid_actor")
	ErrNotFound        = errors.New("practice_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidSchedule = errors.New("invalid_schedule")
	ErrInvalidDuration = errors.New("invalid_duration")
	ErrInvalidDrill    = errors.New("invalid_drill")
)
