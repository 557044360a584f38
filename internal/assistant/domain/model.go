package domain

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Conversation struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	OwnerID   int64     `json:"owner_id" gorm:"column:owner_id;not null;index"`
	Title     string    `json:"title" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Conversation) TableName() string { return "assistant_conversations" }

type Message struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	ConversationID int64     `json:"conversation_id" gorm:"not null;index"`
	Role           string    `json:"role" gorm:"type:text;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	TokenCount     int       `json:"token_count" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Message) TableName() string { return "assistant_messages" }
