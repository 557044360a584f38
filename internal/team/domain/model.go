package domain

import (
	"time"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRevoked  InviteStatus = "revoked"
)

type Team struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	CoachID    int64     `json:"coach_id" gorm:"column:coach_id;not null;index"`
	Name       string    `json:"name" gorm:"type:text;not null"`
	Slug       string    `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Season     *string   `json:"season,omitempty" gorm:"type:text"`
	InviteCode string    `json:"invite_code" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Team) TableName() string { return "teams" }

type TeamMember struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	TeamID       int64     `json:"team_id" gorm:"not null;index:ux_team_members_team_player,unique,priority:1"`
	PlayerID     int64     `json:"player_id" gorm:"not null;index:ux_team_members_team_player,unique,priority:2"`
	JerseyNumber *int      `json:"jersey_number,omitempty"`
	JoinedAt     time.Time `json:"joined_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TeamMember) TableName() string { return "team_members" }

type TeamInvite struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	TeamID    int64     `json:"team_id" gorm:"not null;index"`
	Email     string    `json:"email" gorm:"type:text;not null"`
	Status    string    `json:"status" gorm:"type:text;not null;default:'pending'"`
	InvitedBy int64     `json:"invited_by" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TeamInvite) TableName() string { return "team_invites" }
