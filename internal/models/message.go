package models

import (
	"time"
)

// Sender values for chat messages.
const (
	SenderUser = "USER"
	SenderAI   = "AI"
)

// ChatMessage represents one turn of a memory conversation. Rows are
// immutable once created; transcript order within a session is timestamp order.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index"`
	SessionID string    `json:"session_id" gorm:"index;not null"`
	Sender    string    `json:"sender" gorm:"not null"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the original collection name.
func (ChatMessage) TableName() string {
	return "chat_history"
}

// IsUser reports whether the message was written by the human user.
func (m *ChatMessage) IsUser() bool {
	return m.Sender == SenderUser
}
