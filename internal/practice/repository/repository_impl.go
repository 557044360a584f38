package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/practice/domain"
	"github.com/courtsidehq/courtside/pkg/db/option"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, session *domain.PracticeSession) error {
	return db.WithContext(ctx).Create(session).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.PracticeSession, error) {
	var p domain.PracticeSession
	err := db.WithContext(ctx).Model(&domain.PracticeSession{}).Where("id = ?", id).Take(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListByCoach(ctx context.Context, db *gorm.DB, coachID int64, filter domain.ListRequest) ([]*domain.PracticeSession, error) {
	stmt := db.WithContext(ctx).Model(&domain.PracticeSession{}).Where("coach_id = ?", coachID)
	return r.list(stmt, filter)
}

func (r *repo) ListByTeams(ctx context.Context, db *gorm.DB, teamIDs []int64, filter domain.ListRequest) ([]*domain.PracticeSession, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	stmt := db.WithContext(ctx).Model(&domain.PracticeSession{}).Where("team_id IN ?", teamIDs)
	return r.list(stmt, filter)
}

func (r *repo) list(stmt *gorm.DB, filter domain.ListRequest) ([]*domain.PracticeSession, error) {
	if teamID := strings.TrimSpace(filter.TeamID); teamID != "" {
		stmt = stmt.Where("team_id = ?", teamID)
	}
	if filter.From != nil {
		stmt = stmt.Where("scheduled_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		stmt = stmt.Where("scheduled_at <= ?", filter.To.UTC())
	}

	stmt = option.ApplyPagination(filter.Pagination).Apply(stmt)
	stmt = stmt.Order("created_at desc, id desc")

	var items []*domain.PracticeSession
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, session *domain.PracticeSession) error {
	if session == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE practice_sessions
		 SET title = ?, scheduled_at = ?, duration_minutes = ?, focus_areas = ?, notes = ?, updated_at = ?
		 WHERE coach_id = ? AND id = ?`,
		session.Title,
		session.ScheduledAt,
		session.DurationMinutes,
		session.FocusAreas,
		session.Notes,
		session.UpdatedAt,
		session.CoachID,
		session.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, coachID, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("practice_id = ?", id).Delete(&domain.PracticeDrill{}).Error; err != nil {
			return err
		}
		return tx.Where("coach_id = ? AND id = ?", coachID, id).Delete(&domain.PracticeSession{}).Error
	})
}

// ReplaceDrills swaps the full ordered drill list in one transaction.
func (r *repo) ReplaceDrills(ctx context.Context, db *gorm.DB, practiceID int64, drills []*domain.PracticeDrill) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("practice_id = ?", practiceID).Delete(&domain.PracticeDrill{}).Error; err != nil {
			return err
		}
		for _, drill := range drills {
			if drill == nil {
				continue
			}
			if err := tx.Create(drill).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) ListDrills(ctx context.Context, db *gorm.DB, practiceID int64) ([]*domain.PracticeDrill, error) {
	var drills []*domain.PracticeDrill
	err := db.WithContext(ctx).Model(&domain.PracticeDrill{}).
		Where("practice_id = ?", practiceID).
		Order("position asc").
		Find(&drills).Error
	if err != nil {
		return nil, err
	}
	return drills, nil
}
