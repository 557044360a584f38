package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActivityEvent is an append-only record of something a user did.
// Events are never updated or deleted once written.
type ActivityEvent struct {
	ID         string            `gorm:"column:id;type:varchar(26);primaryKey" json:"id"`
	ActorID    snowflake.ID      `gorm:"column:actor_id;index" json:"actor_id"`
	ActorRole  string            `gorm:"column:actor_role" json:"actor_role"`
	Action     string            `gorm:"column:action" json:"action"`
	TargetType string            `gorm:"column:target_type" json:"target_type"`
	TargetID   *string           `gorm:"column:target_id" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;index" json:"created_at"`
}

func (ActivityEvent) TableName() string { return "activity_events" }

// ActivityCursor positions a page within the (created_at desc, id desc) ordering.
type ActivityCursor struct {
	ID        string
	CreatedAt time.Time
}

type ListFilter struct {
	ActorID    snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *ActivityCursor
	Limit      int
}
