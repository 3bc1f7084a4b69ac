package api

import (
	"net/http"
	"time"

	"memory-keeper/backend/internal/models"
	"memory-keeper/backend/internal/service"
	"memory-keeper/backend/internal/session"
	"memory-keeper/backend/pkg/logger"
	"memory-keeper/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// HistoryEntry is the wire form of a chat message as the UI sends it back
// in the generate request body.
type HistoryEntry struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateRequest is the body of POST /generate-ai-response.
type GenerateRequest struct {
	Message   string         `json:"message" binding:"required"`
	History   []HistoryEntry `json:"history"`
	SessionID string         `json:"sessionId" binding:"required"`
}

// ChatController handles the conversational endpoints
type ChatController struct {
	responder *service.Responder
	chat      *service.ChatService
	logger    *logger.Logger
}

// NewChatController creates a new chat controller
func NewChatController(responder *service.Responder, chat *service.ChatService, logger *logger.Logger) *ChatController {
	return &ChatController{
		responder: responder,
		chat:      chat,
		logger:    logger,
	}
}

// GenerateResponse handles POST /generate-ai-response: one conversational
// turn. The reply text comes back even when the provider call failed (the
// responder substitutes its fallback); only storage errors surface as 500s.
func (ct *ChatController) GenerateResponse(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	history := make([]models.ChatMessage, len(req.History))
	for i, entry := range req.History {
		history[i] = models.ChatMessage{
			Sender:    entry.Sender,
			Message:   entry.Message,
			Timestamp: entry.Timestamp,
		}
	}

	reply, err := ct.responder.Respond(c.Request.Context(), userID, req.Message, history, req.SessionID)
	if err != nil {
		ct.logger.Error("Error generating AI response", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// StartSession mints a fresh session identifier for a new conversation
func (ct *ChatController) StartSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessionId": session.NewID()})
}

// GetSessionMessages returns the caller's transcript for one session
func (ct *ChatController) GetSessionMessages(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	messages, err := ct.chat.GetSessionTranscript(userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"messages":  messages,
		"count":     len(messages),
	})
}

// GetHistory returns all of the caller's messages across sessions
func (ct *ChatController) GetHistory(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	messages, err := ct.chat.GetUserHistory(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}
