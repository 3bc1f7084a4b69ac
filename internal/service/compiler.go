package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"memory-keeper/backend/ai"
	"memory-keeper/backend/pkg/logger"
	"memory-keeper/backend/pkg/observability"

	"memory-keeper/backend/internal/models"
)

// Compile failure taxonomy. Each condition is a distinct error value so
// callers can map it to a status without string matching.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoContent        = errors.New("no content to compile")
	ErrGenerationFailed = errors.New("generation failed")
	ErrMalformedOutput  = errors.New("malformed AI output")
)

// BlogDraft is the structured document the model must return when a
// transcript is compiled. Title and Content are required.
type BlogDraft struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
	Excerpt string   `json:"excerpt"`
}

// TranscriptSource yields a session's full ordered transcript scoped to
// its owner and releases the session's in-memory projection once it is no
// longer needed. *ChatService is the production implementation.
type TranscriptSource interface {
	GetSessionTranscript(userID uint, sessionID string) ([]models.ChatMessage, error)
	DropSession(sessionID string)
}

// MemorySink persists compiled memories. *MemoryService is the production
// implementation.
type MemorySink interface {
	CreateMemory(ctx context.Context, memory *models.Memory) (*models.Memory, error)
}

// Compiler turns a finished chat session's transcript into a Memory record
// via one structured-output model call. No retries, no repair: a transcript
// either compiles in one pass or the operation fails with nothing written.
type Compiler struct {
	completer ai.Completer
	chat      TranscriptSource
	memories  MemorySink
	log       *logger.Logger
}

// NewCompiler creates a new memory compiler
func NewCompiler(completer ai.Completer, chat TranscriptSource, memories MemorySink, log *logger.Logger) *Compiler {
	return &Compiler{
		completer: completer,
		chat:      chat,
		memories:  memories,
		log:       log,
	}
}

// Compile fetches the full ordered transcript for sessionID, asks the model
// for a blog draft, and persists the result as a Memory owned by callerID.
// The full history is sent; unlike the responder there is no windowing.
func (c *Compiler) Compile(ctx context.Context, callerID uint, sessionID string) (*models.Memory, *BlogDraft, error) {
	if callerID == 0 {
		return nil, nil, ErrNotAuthenticated
	}

	transcript, err := c.chat.GetSessionTranscript(callerID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if len(transcript) == 0 {
		return nil, nil, ErrNoContent
	}

	lines := make([]string, len(transcript))
	for i, msg := range transcript {
		lines[i] = ai.TranscriptLine(msg.Sender, msg.Message)
	}

	start := time.Now()
	raw, err := c.completer.Complete(ctx, ai.CompletionRequest{
		Model: ai.ChatModel,
		Messages: []ai.ChatMessage{
			{Role: "system", Content: ai.BlogSystemPrompt},
			{Role: "user", Content: ai.BuildBlogPrompt(lines)},
		},
		MaxTokens:   ai.BlogMaxTokens,
		Temperature: ai.BlogTemperature,
	})
	observability.ModelCallDuration.WithLabelValues("compile").Observe(time.Since(start).Seconds())

	if err != nil {
		c.log.LogError(err, "memory compilation call failed", "session_id", sessionID)
		observability.ModelCalls.WithLabelValues("compile", "error").Inc()
		return nil, nil, ErrGenerationFailed
	}

	draft, err := parseBlogDraft(raw)
	if err != nil {
		c.log.LogError(err, "model returned unparseable blog draft", "session_id", sessionID)
		observability.ModelCalls.WithLabelValues("compile", "malformed").Inc()
		return nil, nil, ErrMalformedOutput
	}
	observability.ModelCalls.WithLabelValues("compile", "ok").Inc()

	memory, err := c.memories.CreateMemory(ctx, &models.Memory{
		UserID:    callerID,
		Title:     draft.Title,
		Content:   draft.Content,
		Summary:   draft.Summary,
		Tags:      models.TagList(draft.Tags).Dedupe(),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, nil, err
	}

	// the session is finished; release its projection
	c.chat.DropSession(sessionID)

	observability.MemoriesCompiled.Inc()
	return memory, draft, nil
}

// parseBlogDraft strictly decodes the model output against the draft
// schema. Anything that is not a JSON object with a non-empty title and
// content is malformed.
func parseBlogDraft(raw string) (*BlogDraft, error) {
	var draft BlogDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, err
	}

	if draft.Title == "" {
		return nil, errors.New("draft is missing a title")
	}
	if draft.Content == "" {
		return nil, errors.New("draft is missing content")
	}

	return &draft, nil
}
