package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/announcement/domain"
	"github.com/courtsidehq/courtside/pkg/db/option"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, announcement *domain.Announcement) error {
	return db.WithContext(ctx).Create(announcement).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Announcement, error) {
	var a domain.Announcement
	err := db.WithContext(ctx).Model(&domain.Announcement{}).Where("id = ?", id).Take(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *repo) ListByTeams(ctx context.Context, db *gorm.DB, teamIDs []int64, filter domain.ListRequest) ([]*domain.Announcement, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}

	stmt := db.WithContext(ctx).Model(&domain.Announcement{}).Where("team_id IN ?", teamIDs)

	if teamID := strings.TrimSpace(filter.TeamID); teamID != "" {
		stmt = stmt.Where("team_id = ?", teamID)
	}
	if filter.Pinned != nil {
		stmt = stmt.Where("pinned = ?", *filter.Pinned)
	}

	stmt = option.ApplyPagination(filter.Pagination).Apply(stmt)
	stmt = stmt.Order("created_at desc, id desc")

	var items []*domain.Announcement
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, announcement *domain.Announcement) error {
	if announcement == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE announcements
		 SET title = ?, body = ?, pinned = ?, published_at = ?, updated_at = ?
		 WHERE id = ?`,
		announcement.Title,
		announcement.Body,
		announcement.Pinned,
		announcement.PublishedAt,
		announcement.UpdatedAt,
		announcement.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Announcement{}).Error
}
