package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/drill/domain"
	"github.com/courtsidehq/courtside/pkg/db/option"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, drill *domain.Drill) error {
	return db.WithContext(ctx).Create(drill).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, coachID, id int64) (*domain.Drill, error) {
	var d domain.Drill
	stmt := db.WithContext(ctx).Model(&domain.Drill{}).Where("id = ?", id)
	if coachID != 0 {
		stmt = stmt.Where("coach_id = ?", coachID)
	}
	if err := stmt.Take(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, coachID int64, filter domain.ListRequest) ([]*domain.Drill, error) {
	stmt := db.WithContext(ctx).Model(&domain.Drill{}).Where("coach_id = ?", coachID)
	return r.list(ctx, stmt, filter)
}

func (r *repo) ListVisible(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]*domain.Drill, error) {
	stmt := db.WithContext(ctx).Model(&domain.Drill{})
	return r.list(ctx, stmt, filter)
}

func (r *repo) list(_ context.Context, stmt *gorm.DB, filter domain.ListRequest) ([]*domain.Drill, error) {
	if level := strings.TrimSpace(filter.SkillLevel); level != "" {
		stmt = stmt.Where("skill_level = ?", level)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		stmt = stmt.Where("? = ANY(tags)", tag)
	}

	stmt = option.ApplyPagination(filter.Pagination).Apply(stmt)
	stmt = stmt.Order("created_at desc, id desc")

	var items []*domain.Drill
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, drill *domain.Drill) error {
	if drill == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE drills
		 SET title = ?, description = ?, skill_level = ?, tags = ?, video_url = ?, duration_minutes = ?, updated_at = ?
		 WHERE coach_id = ? AND id = ?`,
		drill.Title,
		drill.Description,
		drill.SkillLevel,
		drill.Tags,
		drill.VideoURL,
		drill.DurationMinutes,
		drill.UpdatedAt,
		drill.CoachID,
		drill.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, coachID, id int64) error {
	return db.WithContext(ctx).
		Where("coach_id = ? AND id = ?", coachID, id).
		Delete(&domain.Drill{}).Error
}
