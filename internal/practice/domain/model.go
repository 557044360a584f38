package domain

import (
	"time"

	"github.com/lib/pq"
)

type PracticeSession struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	CoachID         int64          `json:"coach_id" gorm:"column:coach_id;not null;index"`
	TeamID          *int64         `json:"team_id,omitempty" gorm:"index"`
	Title           string         `json:"title" gorm:"type:text;not null"`
	ScheduledAt     time.Time      `json:"scheduled_at" gorm:"not null;index"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null;default:0"`
	FocusAreas      pq.StringArray `json:"focus_areas,omitempty" gorm:"type:text[]"`
	Notes           *string        `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (PracticeSession) TableName() string { return "practice_sessions" }

// PracticeDrill links a drill into a session with an explicit position.
type PracticeDrill struct {
	ID         int64 `json:"id" gorm:"primaryKey"`
	PracticeID int64 `json:"practice_id" gorm:"not null;index:ux_practice_drills_practice_position,unique,priority:1"`
	DrillID    int64 `json:"drill_id" gorm:"not null"`
	Position   int   `json:"position" gorm:"not null;index:ux_practice_drills_practice_position,unique,priority:2"`
	Minutes    int   `json:"minutes" gorm:"not null;default:0"`
}

func (PracticeDrill) TableName() string { return "practice_drills" }
