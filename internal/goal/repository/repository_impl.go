package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/goal/domain"
	"github.com/courtsidehq/courtside/pkg/db/option"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, goal *domain.Goal) error {
	return db.WithContext(ctx).Create(goal).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Goal, error) {
	var g domain.Goal
	err := db.WithContext(ctx).Model(&domain.Goal{}).Where("id = ?", id).Take(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (r *repo) ListByPlayer(ctx context.Context, db *gorm.DB, playerID int64, filter domain.ListRequest) ([]*domain.Goal, error) {
	stmt := db.WithContext(ctx).Model(&domain.Goal{}).Where("player_id = ?", playerID)
	return r.list(stmt, filter)
}

func (r *repo) ListByCoach(ctx context.Context, db *gorm.DB, coachID int64, filter domain.ListRequest) ([]*domain.Goal, error) {
	stmt := db.WithContext(ctx).Model(&domain.Goal{}).Where("coach_id = ?", coachID)
	return r.list(stmt, filter)
}

func (r *repo) list(stmt *gorm.DB, filter domain.ListRequest) ([]*domain.Goal, error) {
	if status := strings.TrimSpace(filter.Status); status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	stmt = option.ApplyPagination(filter.Pagination).Apply(stmt)
	stmt = stmt.Order("created_at desc, id desc")

	var items []*domain.Goal
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, goal *domain.Goal) error {
	if goal == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE goals
		 SET title = ?, description = ?, target_date = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		goal.Title,
		goal.Description,
		goal.TargetDate,
		goal.Status,
		goal.UpdatedAt,
		goal.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", id).Delete(&domain.ProgressEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Goal{}).Error
	})
}

func (r *repo) AddProgress(ctx context.Context, db *gorm.DB, entry *domain.ProgressEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListProgress(ctx context.Context, db *gorm.DB, goalID int64) ([]*domain.ProgressEntry, error) {
	var entries []*domain.ProgressEntry
	err := db.WithContext(ctx).Model(&domain.ProgressEntry{}).
		Where("goal_id = ?", goalID).
		Order("recorded_at asc, id asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
