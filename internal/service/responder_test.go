package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"memory-keeper/backend/ai"
	"memory-keeper/backend/internal/models"
	"memory-keeper/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCompleter returns a canned reply and records the last request.
type stubCompleter struct {
	reply   string
	err     error
	lastReq ai.CompletionRequest
	calls   int
}

func (s *stubCompleter) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	s.calls++
	s.lastReq = req
	return s.reply, s.err
}

// fakeExchangeStore records persisted turns and serves a canned projection.
type fakeExchangeStore struct {
	sessionID      string
	userText       string
	aiText         string
	err            error
	saves          int
	projected      []models.ChatMessage
	projectedCalls int
}

func (f *fakeExchangeStore) ProjectedHistory(userID uint, sessionID string) []models.ChatMessage {
	f.projectedCalls++
	return f.projected
}

func (f *fakeExchangeStore) SaveExchange(userID uint, sessionID, userText, aiText string) ([]models.ChatMessage, error) {
	f.saves++
	f.sessionID = sessionID
	f.userText = userText
	f.aiText = aiText
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now()
	return []models.ChatMessage{
		{UserID: userID, SessionID: sessionID, Sender: models.SenderUser, Message: userText, Timestamp: now},
		{UserID: userID, SessionID: sessionID, Sender: models.SenderAI, Message: aiText, Timestamp: now.Add(time.Millisecond)},
	}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
}

func historyOf(n int) []models.ChatMessage {
	history := make([]models.ChatMessage, n)
	for i := range history {
		sender := models.SenderUser
		if i%2 == 1 {
			sender = models.SenderAI
		}
		history[i] = models.ChatMessage{
			Sender:    sender,
			Message:   fmt.Sprintf("turn %d", i),
			Timestamp: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
		}
	}
	return history
}

func TestGenerateReturnsStubReply(t *testing.T) {
	completer := &stubCompleter{reply: "That sounds wonderful, tell me more!"}
	responder := NewResponder(completer, &fakeExchangeStore{}, testLogger())

	reply, err := responder.Generate(context.Background(), "Tell me about your wedding", nil, "s2")
	require.NoError(t, err)
	assert.Equal(t, "That sounds wonderful, tell me more!", reply)

	// system prompt plus the user message only
	require.Len(t, completer.lastReq.Messages, 2)
	assert.Equal(t, "system", completer.lastReq.Messages[0].Role)
	assert.Equal(t, ai.InterviewerSystemPrompt, completer.lastReq.Messages[0].Content)
	assert.Equal(t, "user", completer.lastReq.Messages[1].Role)
	assert.Equal(t, "Tell me about your wedding", completer.lastReq.Messages[1].Content)
}

func TestGenerateUsesFixedSamplingParameters(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	responder := NewResponder(completer, &fakeExchangeStore{}, testLogger())

	_, err := responder.Generate(context.Background(), "hello", nil, "s1")
	require.NoError(t, err)

	assert.Equal(t, ai.ChatModel, completer.lastReq.Model)
	assert.Equal(t, ai.ResponseMaxTokens, completer.lastReq.MaxTokens)
	assert.InDelta(t, ai.ResponseTemperature, completer.lastReq.Temperature, 0.001)
}

func TestGenerateFallsBackOnProviderError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("provider exploded")}
	responder := NewResponder(completer, &fakeExchangeStore{}, testLogger())

	reply, err := responder.Generate(context.Background(), "hello", nil, "s1")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)
	assert.NotEmpty(t, reply)
}

func TestGenerateWindowsHistory(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	responder := NewResponder(completer, &fakeExchangeStore{}, testLogger())

	history := historyOf(15)
	_, err := responder.Generate(context.Background(), "latest question", history, "s1")
	require.NoError(t, err)

	// system + last 10 history entries + the new user message
	require.Len(t, completer.lastReq.Messages, 12)
	assert.Equal(t, "turn 5", completer.lastReq.Messages[1].Content)
	assert.Equal(t, "turn 14", completer.lastReq.Messages[10].Content)
	assert.Equal(t, "latest question", completer.lastReq.Messages[11].Content)
}

func TestGenerateMapsSenderRoles(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	responder := NewResponder(completer, &fakeExchangeStore{}, testLogger())

	history := []models.ChatMessage{
		{Sender: models.SenderUser, Message: "I grew up on a farm"},
		{Sender: models.SenderAI, Message: "What was that like?"},
	}
	_, err := responder.Generate(context.Background(), "Hard but happy", history, "s1")
	require.NoError(t, err)

	require.Len(t, completer.lastReq.Messages, 4)
	assert.Equal(t, "user", completer.lastReq.Messages[1].Role)
	assert.Equal(t, "assistant", completer.lastReq.Messages[2].Role)
}

func TestGenerateRejectsEmptyMessage(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	responder := NewResponder(completer, &fakeExchangeStore{}, testLogger())

	_, err := responder.Generate(context.Background(), "", nil, "s1")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, completer.calls)
}

func TestRespondPersistsExchange(t *testing.T) {
	completer := &stubCompleter{reply: "A lovely story!"}
	store := &fakeExchangeStore{}
	responder := NewResponder(completer, store, testLogger())

	reply, err := responder.Respond(context.Background(), 7, "my story", nil, "s9")
	require.NoError(t, err)
	assert.Equal(t, "A lovely story!", reply)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, "s9", store.sessionID)
	assert.Equal(t, "my story", store.userText)
	assert.Equal(t, "A lovely story!", store.aiText)
}

func TestRespondPersistsFallbackReply(t *testing.T) {
	completer := &stubCompleter{err: errors.New("timeout")}
	store := &fakeExchangeStore{}
	responder := NewResponder(completer, store, testLogger())

	reply, err := responder.Respond(context.Background(), 7, "my story", nil, "s9")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, reply)
	assert.Equal(t, FallbackReply, store.aiText)
}

func TestRespondFallsBackToProjectedHistory(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	store := &fakeExchangeStore{projected: []models.ChatMessage{
		{Sender: models.SenderUser, Message: "I grew up on a farm"},
		{Sender: models.SenderAI, Message: "What was that like?"},
	}}
	responder := NewResponder(completer, store, testLogger())

	_, err := responder.Respond(context.Background(), 7, "Hard but happy", nil, "s9")
	require.NoError(t, err)

	// system + 2 projected entries + the new user message
	require.Len(t, completer.lastReq.Messages, 4)
	assert.Equal(t, "I grew up on a farm", completer.lastReq.Messages[1].Content)
	assert.Equal(t, "What was that like?", completer.lastReq.Messages[2].Content)
}

func TestRespondPrefersClientHistory(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	store := &fakeExchangeStore{projected: []models.ChatMessage{
		{Sender: models.SenderUser, Message: "projected"},
	}}
	responder := NewResponder(completer, store, testLogger())

	history := []models.ChatMessage{{Sender: models.SenderUser, Message: "from the client"}}
	_, err := responder.Respond(context.Background(), 7, "next", history, "s9")
	require.NoError(t, err)

	assert.Zero(t, store.projectedCalls)
	require.Len(t, completer.lastReq.Messages, 3)
	assert.Equal(t, "from the client", completer.lastReq.Messages[1].Content)
}

func TestRespondPropagatesStoreError(t *testing.T) {
	completer := &stubCompleter{reply: "ok"}
	store := &fakeExchangeStore{err: errors.New("connection refused")}
	responder := NewResponder(completer, store, testLogger())

	_, err := responder.Respond(context.Background(), 7, "my story", nil, "s9")
	assert.EqualError(t, err, "connection refused")
}
