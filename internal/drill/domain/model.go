package domain

import (
	"time"

	"github.com/lib/pq"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

func (s SkillLevel) Valid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	default:
		return false
	}
}

type Drill struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	CoachID         int64          `json:"coach_id" gorm:"column:coach_id;not null;index"`
	Title           string         `json:"title" gorm:"type:text;not null"`
	Description     *string        `json:"description,omitempty" gorm:"type:text"`
	SkillLevel      string         `json:"skill_level" gorm:"type:text;not null"`
	Tags            pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	VideoURL        *string        `json:"video_url,omitempty" gorm:"type:text"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null;default:0"`
	CreatedAt       time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Drill) TableName() string { return "drills" }
