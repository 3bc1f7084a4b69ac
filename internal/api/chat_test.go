package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memory-keeper/backend/ai"
	"memory-keeper/backend/internal/models"
	"memory-keeper/backend/internal/service"
	"memory-keeper/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	reply   string
	err     error
	lastReq ai.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	s.lastReq = req
	return s.reply, s.err
}

type fakeExchangeStore struct {
	err   error
	saves int
}

func (f *fakeExchangeStore) ProjectedHistory(userID uint, sessionID string) []models.ChatMessage {
	return nil
}

func (f *fakeExchangeStore) SaveExchange(userID uint, sessionID, userText, aiText string) ([]models.ChatMessage, error) {
	f.saves++
	if f.err != nil {
		return nil, f.err
	}
	return []models.ChatMessage{
		{UserID: userID, SessionID: sessionID, Sender: models.SenderUser, Message: userText},
		{UserID: userID, SessionID: sessionID, Sender: models.SenderAI, Message: aiText},
	}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
}

// authAs injects the caller identity the way the JWT middleware does.
func authAs(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func chatRouter(completer *stubCompleter, store *fakeExchangeStore, authed bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()
	responder := service.NewResponder(completer, store, log)
	controller := NewChatController(responder, nil, log)

	r := gin.New()
	group := r.Group("")
	if authed {
		group.Use(authAs(42))
	}
	group.POST("/generate-ai-response", controller.GenerateResponse)
	group.POST("/sessions", controller.StartSession)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateResponseEndpoint(t *testing.T) {
	completer := &stubCompleter{reply: "That sounds wonderful, tell me more!"}
	store := &fakeExchangeStore{}
	r := chatRouter(completer, store, true)

	w := postJSON(t, r, "/generate-ai-response", gin.H{
		"message":   "I remember my first day of school",
		"sessionId": "session-123",
		"history": []gin.H{
			{"sender": "USER", "message": "hello", "timestamp": time.Now()},
			{"sender": "AI", "message": "hi!", "timestamp": time.Now()},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "That sounds wonderful, tell me more!", resp["response"])
	assert.Equal(t, 1, store.saves)

	// system + 2 history entries + new message
	assert.Len(t, completer.lastReq.Messages, 4)
}

func TestGenerateResponseRequiresAuth(t *testing.T) {
	r := chatRouter(&stubCompleter{reply: "ok"}, &fakeExchangeStore{}, false)

	w := postJSON(t, r, "/generate-ai-response", gin.H{
		"message":   "hello",
		"sessionId": "s1",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateResponseValidatesBody(t *testing.T) {
	store := &fakeExchangeStore{}
	r := chatRouter(&stubCompleter{reply: "ok"}, store, true)

	for name, body := range map[string]gin.H{
		"missing message": {"sessionId": "s1"},
		"missing session": {"message": "hello"},
	} {
		t.Run(name, func(t *testing.T) {
			w := postJSON(t, r, "/generate-ai-response", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, store.saves)
		})
	}
}

func TestGenerateResponseFallsBackOnProviderError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("provider down")}
	store := &fakeExchangeStore{}
	r := chatRouter(completer, store, true)

	w := postJSON(t, r, "/generate-ai-response", gin.H{
		"message":   "hello",
		"sessionId": "s1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.FallbackReply, resp["response"])
	assert.Equal(t, 1, store.saves)
}

func TestGenerateResponseStorageError(t *testing.T) {
	store := &fakeExchangeStore{err: errors.New("db unavailable")}
	r := chatRouter(&stubCompleter{reply: "ok"}, store, true)

	w := postJSON(t, r, "/generate-ai-response", gin.H{
		"message":   "hello",
		"sessionId": "s1",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestStartSession(t *testing.T) {
	r := chatRouter(&stubCompleter{reply: "ok"}, &fakeExchangeStore{}, true)

	w := postJSON(t, r, "/sessions", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["sessionId"], "session-")
}
