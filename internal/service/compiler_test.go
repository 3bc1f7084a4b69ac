package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"memory-keeper/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranscriptSource serves canned transcripts keyed by session id and
// records which sessions get released.
type fakeTranscriptSource struct {
	transcripts map[string][]models.ChatMessage
	err         error
	dropped     []string
}

func (f *fakeTranscriptSource) GetSessionTranscript(userID uint, sessionID string) ([]models.ChatMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.transcripts[sessionID], nil
}

func (f *fakeTranscriptSource) DropSession(sessionID string) {
	f.dropped = append(f.dropped, sessionID)
}

// fakeMemorySink assigns sequential ids and records every created memory.
type fakeMemorySink struct {
	created []*models.Memory
	nextID  uint
	err     error
}

func (f *fakeMemorySink) CreateMemory(_ context.Context, memory *models.Memory) (*models.Memory, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	memory.ID = f.nextID
	f.created = append(f.created, memory)
	return memory, nil
}

func farmTranscript() map[string][]models.ChatMessage {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return map[string][]models.ChatMessage{
		"s1": {
			{Sender: models.SenderUser, Message: "I grew up on a farm in Iowa", Timestamp: base},
			{Sender: models.SenderAI, Message: "What do you remember most about it?", Timestamp: base.Add(time.Second)},
			{Sender: models.SenderUser, Message: "The smell of hay in the summer", Timestamp: base.Add(2 * time.Second)},
		},
	}
}

const farmDraftJSON = `{
  "title": "Summers on the Farm",
  "content": "# Summers on the Farm\n\nLife on an Iowa farm smelled of hay...",
  "summary": "Childhood memories of farm life in Iowa.",
  "tags": ["childhood", "farm", "family"],
  "excerpt": "Life on an Iowa farm smelled of hay."
}`

func TestCompileProducesMemory(t *testing.T) {
	completer := &stubCompleter{reply: farmDraftJSON}
	sink := &fakeMemorySink{}
	compiler := NewCompiler(completer, &fakeTranscriptSource{transcripts: farmTranscript()}, sink, testLogger())

	memory, draft, err := compiler.Compile(context.Background(), 42, "s1")
	require.NoError(t, err)

	assert.Equal(t, "Summers on the Farm", memory.Title)
	assert.Contains(t, memory.Content, "Iowa farm")
	assert.Equal(t, uint(42), memory.UserID)
	assert.Equal(t, models.TagList{"childhood", "farm", "family"}, memory.Tags)
	assert.Equal(t, "Life on an Iowa farm smelled of hay.", draft.Excerpt)
	require.Len(t, sink.created, 1)
}

func TestCompileSendsFullOrderedTranscript(t *testing.T) {
	completer := &stubCompleter{reply: farmDraftJSON}
	compiler := NewCompiler(completer, &fakeTranscriptSource{transcripts: farmTranscript()}, &fakeMemorySink{}, testLogger())

	_, _, err := compiler.Compile(context.Background(), 42, "s1")
	require.NoError(t, err)

	require.Len(t, completer.lastReq.Messages, 2)
	prompt := completer.lastReq.Messages[1].Content
	first := strings.Index(prompt, "USER: I grew up on a farm in Iowa")
	second := strings.Index(prompt, "AI: What do you remember most about it?")
	third := strings.Index(prompt, "USER: The smell of hay in the summer")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, third)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestCompileUnauthenticated(t *testing.T) {
	completer := &stubCompleter{reply: farmDraftJSON}
	compiler := NewCompiler(completer, &fakeTranscriptSource{transcripts: farmTranscript()}, &fakeMemorySink{}, testLogger())

	_, _, err := compiler.Compile(context.Background(), 0, "s1")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, completer.calls)
}

func TestCompileEmptyTranscript(t *testing.T) {
	completer := &stubCompleter{reply: farmDraftJSON}
	compiler := NewCompiler(completer, &fakeTranscriptSource{transcripts: farmTranscript()}, &fakeMemorySink{}, testLogger())

	_, _, err := compiler.Compile(context.Background(), 42, "unknown-session")
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Zero(t, completer.calls)
}

func TestCompileProviderError(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream 500")}
	sink := &fakeMemorySink{}
	source := &fakeTranscriptSource{transcripts: farmTranscript()}
	compiler := NewCompiler(completer, source, sink, testLogger())

	_, _, err := compiler.Compile(context.Background(), 42, "s1")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Empty(t, sink.created)
	assert.Empty(t, source.dropped)
}

func TestCompileReleasesSessionProjection(t *testing.T) {
	source := &fakeTranscriptSource{transcripts: farmTranscript()}
	compiler := NewCompiler(&stubCompleter{reply: farmDraftJSON}, source, &fakeMemorySink{}, testLogger())

	_, _, err := compiler.Compile(context.Background(), 42, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, source.dropped)
}

func TestCompileKeepsSessionOnMalformedOutput(t *testing.T) {
	source := &fakeTranscriptSource{transcripts: farmTranscript()}
	compiler := NewCompiler(&stubCompleter{reply: "not json"}, source, &fakeMemorySink{}, testLogger())

	_, _, err := compiler.Compile(context.Background(), 42, "s1")
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Empty(t, source.dropped)
}

func TestCompileMalformedOutput(t *testing.T) {
	cases := map[string]string{
		"not json":      "Here is your blog post! It was a lovely story.",
		"missing title": `{"content": "body text"}`,
		"empty content": `{"title": "A Title", "content": ""}`,
	}

	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			sink := &fakeMemorySink{}
			compiler := NewCompiler(&stubCompleter{reply: reply}, &fakeTranscriptSource{transcripts: farmTranscript()}, sink, testLogger())

			_, _, err := compiler.Compile(context.Background(), 42, "s1")
			assert.ErrorIs(t, err, ErrMalformedOutput)
			assert.Empty(t, sink.created)
		})
	}
}

func TestCompileDedupesTags(t *testing.T) {
	reply := `{"title": "T", "content": "C", "tags": ["farm", "family", "farm", "childhood", "family"]}`
	sink := &fakeMemorySink{}
	compiler := NewCompiler(&stubCompleter{reply: reply}, &fakeTranscriptSource{transcripts: farmTranscript()}, sink, testLogger())

	memory, _, err := compiler.Compile(context.Background(), 42, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.TagList{"farm", "family", "childhood"}, memory.Tags)
}

func TestCompileTwiceCreatesDistinctRecords(t *testing.T) {
	completer := &stubCompleter{reply: farmDraftJSON}
	sink := &fakeMemorySink{}
	compiler := NewCompiler(completer, &fakeTranscriptSource{transcripts: farmTranscript()}, sink, testLogger())

	first, _, err := compiler.Compile(context.Background(), 42, "s1")
	require.NoError(t, err)
	second, _, err := compiler.Compile(context.Background(), 42, "s1")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Content, second.Content)
	require.Len(t, sink.created, 2)
}

func TestCompilePropagatesSinkError(t *testing.T) {
	sink := &fakeMemorySink{err: errors.New("insert failed")}
	source := &fakeTranscriptSource{transcripts: farmTranscript()}
	compiler := NewCompiler(&stubCompleter{reply: farmDraftJSON}, source, sink, testLogger())

	_, _, err := compiler.Compile(context.Background(), 42, "s1")
	assert.EqualError(t, err, "insert failed")
	assert.Empty(t, source.dropped)
}
