package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, team *Team) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Team, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Team, error)
	FindByInviteCode(ctx context.Context, db *gorm.DB, code string) (*Team, error)
	ListByCoach(ctx context.Context, db *gorm.DB, coachID int64, page pagination.Pagination) ([]*Team, error)
	ListByPlayer(ctx context.Context, db *gorm.DB, playerID int64, page pagination.Pagination) ([]*Team, error)
	Update(ctx context.Context, db *gorm.DB, team *Team) error
	Delete(ctx context.Context, db *gorm.DB, coachID, id int64) error

	AddMember(ctx context.Context, db *gorm.DB, member *TeamMember) error
	FindMember(ctx context.Context, db *gorm.DB, teamID, playerID int64) (*TeamMember, error)
	ListMembers(ctx context.Context, db *gorm.DB, teamID int64) ([]*TeamMember, error)
	RemoveMember(ctx context.Context, db *gorm.DB, teamID, playerID int64) error

	CreateInvite(ctx context.Context, db *gorm.DB, invite *TeamInvite) error
	ListInvites(ctx context.Context, db *gorm.DB, teamID int64) ([]*TeamInvite, error)
	UpdateInviteStatus(ctx context.Context, db *gorm.DB, id int64, status string, updatedAt time.Time) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error

	Roster(ctx context.Context, id string) ([]MemberResponse, error)
	RemovePlayer(ctx context.Context, id string, playerID string) error

	Invite(ctx context.Context, req InviteRequest) error
	JoinByInviteCode(ctx context.Context, req JoinRequest) (*Response, error)
	RotateInviteCode(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	pagination.Pagination
}

type CreateRequest struct {
	Name   string  `json:"name"`
	Season *string `json:"season"`
}

type UpdateRequest struct {
	ID     string  `json:"-"`
	Name   *string `json:"name"`
	Season *string `json:"season"`
}

type InviteRequest struct {
	TeamID string   `json:"-"`
	Emails []string `json:"emails"`
}

type JoinRequest struct {
	InviteCode   string `json:"invite_code"`
	JerseyNumber *int   `json:"jersey_number"`
}

type Response struct {
	ID         string    `json:"id"`
	CoachID    string    `json:"coach_id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	Season     *string   `json:"season,omitempty"`
	InviteCode string    `json:"invite_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type MemberResponse struct {
	PlayerID     string    `json:"player_id"`
	JerseyNumber *int      `json:"jersey_number,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Teams []Response `json:"teams"`
}

var (
	ErrInvalidActor      = errors.New("invalid_actor")
	ErrNotFound          = errors.New("team_not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrInvalidInviteCode = errors.New("invalid_invite_code")
	ErrAlreadyMember     = errors.New("already_member")
	ErrNotMember         = errors.New("not_member")
)
