package option

import (
	"time"

	"github.com/courtsidehq/courtside/pkg/db/pagination"
	"gorm.io/gorm"
)

// Option mutates a gorm statement before it is executed.
type Option interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type paginationOption struct {
	page pagination.Pagination
}

// ApplyPagination translates a cursor page request into a keyset
// where-clause plus limit. One extra row is fetched so callers can
// detect whether another page exists.
func ApplyPagination(page pagination.Pagination) Option {
	return &paginationOption{page: page}
}

func (o *paginationOption) Apply(stmt *gorm.DB) *gorm.DB {
	size := o.page.PageSize
	if size <= 0 {
		size = 10
	}

	if o.page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(o.page.PageToken)
		if err == nil && cursor != nil && cursor.CreatedAt != "" {
			if createdAt, parseErr := time.Parse(time.RFC3339, cursor.CreatedAt); parseErr == nil {
				stmt = stmt.Where(
					"(created_at < ?) OR (created_at = ? AND id < ?)",
					createdAt, createdAt, cursor.ID,
				)
			}
		}
	}

	return stmt.Limit(size + 1)
}
