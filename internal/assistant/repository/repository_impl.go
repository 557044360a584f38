package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/assistant/domain"
	"github.com/courtsidehq/courtside/pkg/db/option"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CreateConversation(ctx context.Context, db *gorm.DB, conversation *domain.Conversation) error {
	return db.WithContext(ctx).Create(conversation).Error
}

func (r *repo) FindConversation(ctx context.Context, db *gorm.DB, ownerID, id int64) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).Model(&domain.Conversation{}).
		Where("owner_id = ? AND id = ?", ownerID, id).
		Take(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repo) ListConversations(ctx context.Context, db *gorm.DB, ownerID int64, page pagination.Pagination) ([]*domain.Conversation, error) {
	stmt := db.WithContext(ctx).Model(&domain.Conversation{}).Where("owner_id = ?", ownerID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	stmt = stmt.Order("created_at desc, id desc")

	var items []*domain.Conversation
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) TouchConversation(ctx context.Context, db *gorm.DB, id int64, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE assistant_conversations SET updated_at = ? WHERE id = ?`,
		updatedAt, id,
	).Error
}

func (r *repo) DeleteConversation(ctx context.Context, db *gorm.DB, ownerID, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("owner_id = ? AND id = ?", ownerID, id).Delete(&domain.Conversation{}).Error
	})
}

func (r *repo) AppendMessage(ctx context.Context, db *gorm.DB, message *domain.Message) error {
	return db.WithContext(ctx).Create(message).Error
}

func (r *repo) ListMessages(ctx context.Context, db *gorm.DB, conversationID int64) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// RecentMessages returns the newest messages in chronological order.
func (r *repo) RecentMessages(ctx context.Context, db *gorm.DB, conversationID int64, limit int) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_id = ?", conversationID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
