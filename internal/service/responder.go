package service

import (
	"context"
	"errors"
	"time"

	"memory-keeper/backend/ai"
	"memory-keeper/backend/internal/models"
	"memory-keeper/backend/pkg/logger"
	"memory-keeper/backend/pkg/observability"
)

// FallbackReply is returned to the user when the model call fails. The
// chat path deliberately swallows provider errors into this string instead
// of surfacing them.
const FallbackReply = "I'm sorry, I'm having trouble responding right now. Please try again."

// HistoryWindow is the number of trailing history entries forwarded to the
// model; older turns are silently dropped.
const HistoryWindow = 10

var ErrEmptyMessage = errors.New("message must not be empty")

// ExchangeStore persists conversation turns and serves the session's
// in-memory projection. *ChatService is the production implementation.
type ExchangeStore interface {
	SaveExchange(userID uint, sessionID, userText, aiText string) ([]models.ChatMessage, error)
	ProjectedHistory(userID uint, sessionID string) []models.ChatMessage
}

// Responder generates the assistant's next conversational turn.
type Responder struct {
	completer ai.Completer
	chat      ExchangeStore
	log       *logger.Logger
	window    int
}

// NewResponder creates a new responder
func NewResponder(completer ai.Completer, chat ExchangeStore, log *logger.Logger) *Responder {
	return &Responder{
		completer: completer,
		chat:      chat,
		log:       log,
		window:    HistoryWindow,
	}
}

// Generate produces one assistant reply for the user's message given the
// trailing conversation history. Only the last HistoryWindow entries of
// history are forwarded. On any provider or transport failure the static
// FallbackReply is returned instead of an error.
func (r *Responder) Generate(ctx context.Context, message string, history []models.ChatMessage, sessionID string) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}

	windowed := history
	if len(windowed) > r.window {
		windowed = windowed[len(windowed)-r.window:]
	}

	messages := make([]ai.ChatMessage, 0, len(windowed)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: ai.InterviewerSystemPrompt})
	for _, msg := range windowed {
		role := "assistant"
		if msg.IsUser() {
			role = "user"
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: msg.Message})
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: message})

	start := time.Now()
	reply, err := r.completer.Complete(ctx, ai.CompletionRequest{
		Model:       ai.ChatModel,
		Messages:    messages,
		MaxTokens:   ai.ResponseMaxTokens,
		Temperature: ai.ResponseTemperature,
	})
	observability.ModelCallDuration.WithLabelValues("respond").Observe(time.Since(start).Seconds())

	if err != nil {
		r.log.LogError(err, "AI response generation failed", "session_id", sessionID)
		observability.ModelCalls.WithLabelValues("respond", "fallback").Inc()
		return FallbackReply, nil
	}

	observability.ModelCalls.WithLabelValues("respond", "ok").Inc()
	return reply, nil
}

// Respond generates a reply and persists the conversation turn: the user
// message and the reply are stored as one batch, with the owner taken from
// the authenticated caller rather than the request body. When the client
// sends no history the server's own session projection stands in. Storage
// failures propagate to the caller.
func (r *Responder) Respond(ctx context.Context, callerID uint, message string, history []models.ChatMessage, sessionID string) (string, error) {
	if len(history) == 0 {
		history = r.chat.ProjectedHistory(callerID, sessionID)
	}

	reply, err := r.Generate(ctx, message, history, sessionID)
	if err != nil {
		return "", err
	}

	if _, err := r.chat.SaveExchange(callerID, sessionID, message, reply); err != nil {
		return "", err
	}

	return reply, nil
}
