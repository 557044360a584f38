package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	FindByID(ctx context.Context, id snowflake.ID) (*Record, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
}

type Service interface {
	Create(ctx context.Context, id snowflake.ID, input CreateInput) (*Profile, error)
	Get(ctx context.Context, id snowflake.ID) (*Profile, error)
	Update(ctx context.Context, id snowflake.ID, patch UpdatePatch) (*Profile, error)
}

type CreateInput struct {
	Email        string
	DisplayName  string
	Role         Role
	Organization string
	Position     string
	CoachID      *snowflake.ID
}

// UpdatePatch applies partial updates; nil fields are left unchanged.
// Role is immutable and deliberately absent.
type UpdatePatch struct {
	DisplayName  *string
	Organization *string
	Position     *string
	CoachID      *snowflake.ID
}
