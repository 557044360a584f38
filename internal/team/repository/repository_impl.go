package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/team/domain"
	"github.com/courtsidehq/courtside/pkg/db/option"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, team *domain.Team) error {
	return db.WithContext(ctx).Create(team).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Team, error) {
	var t domain.Team
	err := db.WithContext(ctx).Model(&domain.Team{}).Where("id = ?", id).Take(&t).Error
	return teamOrNil(&t, err)
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Team, error) {
	var t domain.Team
	err := db.WithContext(ctx).Model(&domain.Team{}).Where("slug = ?", slug).Take(&t).Error
	return teamOrNil(&t, err)
}

func (r *repo) FindByInviteCode(ctx context.Context, db *gorm.DB, code string) (*domain.Team, error) {
	var t domain.Team
	err := db.WithContext(ctx).Model(&domain.Team{}).Where("invite_code = ?", code).Take(&t).Error
	return teamOrNil(&t, err)
}

func (r *repo) ListByCoach(ctx context.Context, db *gorm.DB, coachID int64, page pagination.Pagination) ([]*domain.Team, error) {
	stmt := db.WithContext(ctx).Model(&domain.Team{}).Where("coach_id = ?", coachID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	stmt = stmt.Order("created_at desc, id desc")

	var items []*domain.Team
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListByPlayer(ctx context.Context, db *gorm.DB, playerID int64, page pagination.Pagination) ([]*domain.Team, error) {
	stmt := db.WithContext(ctx).Model(&domain.Team{}).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.player_id = ?", playerID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	stmt = stmt.Order("teams.created_at desc, teams.id desc")

	var items []*domain.Team
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, team *domain.Team) error {
	if team == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE teams
		 SET name = ?, slug = ?, season = ?, invite_code = ?, updated_at = ?
		 WHERE coach_id = ? AND id = ?`,
		team.Name,
		team.Slug,
		team.Season,
		team.InviteCode,
		team.UpdatedAt,
		team.CoachID,
		team.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, coachID, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&domain.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", id).Delete(&domain.TeamInvite{}).Error; err != nil {
			return err
		}
		return tx.Where("coach_id = ? AND id = ?", coachID, id).Delete(&domain.Team{}).Error
	})
}

func (r *repo) AddMember(ctx context.Context, db *gorm.DB, member *domain.TeamMember) error {
	return db.WithContext(ctx).Create(member).Error
}

func (r *repo) FindMember(ctx context.Context, db *gorm.DB, teamID, playerID int64) (*domain.TeamMember, error) {
	var m domain.TeamMember
	err := db.WithContext(ctx).Model(&domain.TeamMember{}).
		Where("team_id = ? AND player_id = ?", teamID, playerID).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *repo) ListMembers(ctx context.Context, db *gorm.DB, teamID int64) ([]*domain.TeamMember, error) {
	var members []*domain.TeamMember
	err := db.WithContext(ctx).Model(&domain.TeamMember{}).
		Where("team_id = ?", teamID).
		Order("joined_at asc, id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) RemoveMember(ctx context.Context, db *gorm.DB, teamID, playerID int64) error {
	return db.WithContext(ctx).
		Where("team_id = ? AND player_id = ?", teamID, playerID).
		Delete(&domain.TeamMember{}).Error
}

func (r *repo) CreateInvite(ctx context.Context, db *gorm.DB, invite *domain.TeamInvite) error {
	return db.WithContext(ctx).Create(invite).Error
}

func (r *repo) ListInvites(ctx context.Context, db *gorm.DB, teamID int64) ([]*domain.TeamInvite, error) {
	var invites []*domain.TeamInvite
	err := db.WithContext(ctx).Model(&domain.TeamInvite{}).
		Where("team_id = ?", teamID).
		Order("created_at desc, id desc").
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *repo) UpdateInviteStatus(ctx context.Context, db *gorm.DB, id int64, status string, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE team_invites SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt, id,
	).Error
}

func teamOrNil(t *domain.Team, err error) (*domain.Team, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}
