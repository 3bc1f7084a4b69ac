package service

import (
	"time"

	"memory-keeper/backend/internal/models"
	"memory-keeper/backend/internal/session"
	"memory-keeper/backend/pkg/observability"

	"gorm.io/gorm"
)

// ChatService persists chat messages and reconstructs session transcripts.
// All reads are scoped to the owning user; transcript order is timestamp
// ascending.
type ChatService struct {
	db       *gorm.DB
	sessions *session.Store
}

// NewChatService creates a new chat service
func NewChatService(db *gorm.DB, sessions *session.Store) *ChatService {
	return &ChatService{db: db, sessions: sessions}
}

// SaveExchange persists a user message and the AI reply as one batch
// insert, mirroring how a conversation turn is stored: both rows or
// neither reach the database in a single call.
func (s *ChatService) SaveExchange(userID uint, sessionID, userText, aiText string) ([]models.ChatMessage, error) {
	now := time.Now()
	pair := []models.ChatMessage{
		{
			UserID:    userID,
			SessionID: sessionID,
			Sender:    models.SenderUser,
			Message:   userText,
			Timestamp: now,
			CreatedAt: now,
		},
		{
			UserID:    userID,
			SessionID: sessionID,
			Sender:    models.SenderAI,
			Message:   aiText,
			Timestamp: now.Add(time.Millisecond),
			CreatedAt: now,
		},
	}

	if err := s.db.Create(&pair).Error; err != nil {
		return nil, err
	}

	for _, msg := range pair {
		s.sessions.Append(msg)
		observability.MessagesStored.WithLabelValues(msg.Sender).Inc()
	}
	return pair, nil
}

// ProjectedHistory returns the in-memory projection of a session, filtered
// to the owner's messages. Used as the prompt-history source when the
// client sends none; after a restart the projection starts empty, which
// costs the model context but never correctness.
func (s *ChatService) ProjectedHistory(userID uint, sessionID string) []models.ChatMessage {
	messages, ok := s.sessions.Transcript(sessionID)
	if !ok {
		return nil
	}

	out := make([]models.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out
}

// GetSessionTranscript returns the full ordered transcript for one of the
// user's sessions. The user_id filter means a caller can only ever read
// their own rows, whatever session id they supply.
func (s *ChatService) GetSessionTranscript(userID uint, sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	result := s.db.Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("timestamp ASC").
		Find(&messages)

	return messages, result.Error
}

// GetUserHistory returns all of the user's messages across sessions in
// timestamp order.
func (s *ChatService) GetUserHistory(userID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	result := s.db.Where("user_id = ?", userID).
		Order("timestamp ASC").
		Find(&messages)

	return messages, result.Error
}

// DropSession discards the in-memory projection for a session. Persisted
// rows are untouched.
func (s *ChatService) DropSession(sessionID string) {
	s.sessions.Drop(sessionID)
}
