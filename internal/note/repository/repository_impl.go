package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/note/domain"
	"github.com/courtsidehq/courtside/pkg/db/option"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, note *domain.Note) error {
	return db.WithContext(ctx).Create(note).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, authorID, id int64) (*domain.Note, error) {
	var n domain.Note
	err := db.WithContext(ctx).Model(&domain.Note{}).
		Where("author_id = ? AND id = ?", authorID, id).
		Take(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, authorID int64, filter domain.ListRequest) ([]*domain.Note, error) {
	stmt := db.WithContext(ctx).Model(&domain.Note{}).Where("author_id = ?", authorID)

	if playerID := strings.TrimSpace(filter.PlayerID); playerID != "" {
		stmt = stmt.Where("player_id = ?", playerID)
	}
	if teamID := strings.TrimSpace(filter.TeamID); teamID != "" {
		stmt = stmt.Where("team_id = ?", teamID)
	}
	if filter.Pinned != nil {
		stmt = stmt.Where("pinned = ?", *filter.Pinned)
	}

	stmt = option.ApplyPagination(filter.Pagination).Apply(stmt)
	stmt = stmt.Order("created_at desc, id desc")

	var items []*domain.Note
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, note *domain.Note) error {
	if note == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE notes SET body = ?, pinned = ?, updated_at = ? WHERE author_id = ? AND id = ?`,
		note.Body,
		note.Pinned,
		note.UpdatedAt,
		note.AuthorID,
		note.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, authorID, id int64) error {
	return db.WithContext(ctx).
		Where("author_id = ? AND id = ?", authorID, id).
		Delete(&domain.Note{}).Error
}
