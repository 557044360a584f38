// Package domain contains core types for the profile store.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the application role attached to a profile.
type Role string

const (
	RoleCoach  Role = "coach"
	RolePlayer Role = "player"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleCoach, RolePlayer:
		return true
	default:
		return false
	}
}

// Record is the persisted shape. One row per identity; the primary key is
// the identity's user ID.
type Record struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	Email        string        `gorm:"column:email;not null"`
	DisplayName  string        `gorm:"column:display_name;type:text;not null"`
	Role         Role          `gorm:"column:role;type:text;not null"`
	Organization *string       `gorm:"column:organization;type:text"`
	Position     *string       `gorm:"column:position;type:text"`
	CoachID      *snowflake.ID `gorm:"column:coach_id"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "profiles" }

// CoachAttributes carries coach-only profile data.
type CoachAttributes struct {
	Organization string `json:"organization"`
}

// PlayerAttributes carries player-only profile data.
type PlayerAttributes struct {
	Position string        `json:"position"`
	CoachID  *snowflake.ID `json:"coach_id,omitempty"`
}

// Profile is the domain view. Exactly one of Coach or Player is set,
// matching Role.
type Profile struct {
	ID          snowflake.ID      `json:"id"`
	Email       string            `json:"email"`
	DisplayName string            `json:"display_name"`
	Role        Role              `json:"role"`
	Coach       *CoachAttributes  `json:"coach,omitempty"`
	Player      *PlayerAttributes `json:"player,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// FromRecord maps a persisted row into the role-shaped domain view.
func FromRecord(rec *Record) *Profile {
	if rec == nil {
		return nil
	}
	p := &Profile{
		ID:          rec.ID,
		Email:       rec.Email,
		DisplayName: rec.DisplayName,
		Role:        rec.Role,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	switch rec.Role {
	case RoleCoach:
		attrs := &CoachAttributes{}
		if rec.Organization != nil {
			attrs.Organization = *rec.Organization
		}
		p.Coach = attrs
	case RolePlayer:
		attrs := &PlayerAttributes{CoachID: rec.CoachID}
		if rec.Position != nil {
			attrs.Position = *rec.Position
		}
		p.Player = attrs
	}
	return p
}
