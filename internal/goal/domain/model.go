package domain

import "time"

type Status string

const (
	StatusOpen      Status = "open"
	StatusAchieved  Status = "achieved"
	StatusAbandoned Status = "abandoned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAchieved, StatusAbandoned:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a goal may move from s to next.
// Closed goals can be reopened; everything else flows through open.
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() || s == next {
		return false
	}
	switch s {
	case StatusOpen:
		return true
	case StatusAchieved, StatusAbandoned:
		return next == StatusOpen
	default:
		return false
	}
}

type Goal struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	PlayerID    int64      `json:"player_id" gorm:"column:player_id;not null;index"`
	CoachID     *int64     `json:"coach_id,omitempty" gorm:"index"`
	Title       string     `json:"title" gorm:"type:text;not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Status      string     `json:"status" gorm:"type:text;not null;default:'open'"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Goal) TableName() string { return "goals" }

type ProgressEntry struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	GoalID     int64     `json:"goal_id" gorm:"not null;index"`
	Percent    int       `json:"percent" gorm:"not null;default:0"`
	Comment    *string   `json:"comment,omitempty" gorm:"type:text"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ProgressEntry) TableName() string { return "goal_progress_entries" }
