package domain

import "time"

type Note struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	AuthorID  int64     `json:"author_id" gorm:"column:author_id;not null;index"`
	PlayerID  *int64    `json:"player_id,omitempty" gorm:"index"`
	TeamID    *int64    `json:"team_id,omitempty" gorm:"index"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	Pinned    bool      `json:"pinned" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Note) TableName() string { return "notes" }
