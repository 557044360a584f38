package domain

import "time"

type Announcement struct {
	ID          int64      `json:"id" gorm:"primaryKey"`
	TeamID      int64      `json:"team_id" gorm:"not null;index"`
	AuthorID    int64      `json:"author_id" gorm:"column:author_id;not null"`
	Title       string     `json:"title" gorm:"type:text;not null"`
	Body        string     `json:"body" gorm:"type:text;not null"`
	Pinned      bool       `json:"pinned" gorm:"not null;default:false"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Announcement) TableName() string { return "announcements" }
