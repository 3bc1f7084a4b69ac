package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"memory-keeper/backend/internal/models"
	"memory-keeper/backend/pkg/logger"
)

var ErrExportUnavailable = errors.New("export service is not configured")

// Renderer turns a memory into a PDF document. Rendering is an external
// collaborator; this interface is its boundary.
type Renderer interface {
	Render(ctx context.Context, memory *models.Memory) ([]byte, error)
}

// HTTPRenderer delegates rendering to an external service over HTTP.
type HTTPRenderer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPRenderer creates a renderer client for the given service URL.
func NewHTTPRenderer(baseURL string) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Render posts the memory document to the render endpoint and returns the
// PDF bytes.
func (r *HTTPRenderer) Render(ctx context.Context, memory *models.Memory) ([]byte, error) {
	payload, err := json.Marshal(memory)
	if err != nil {
		return nil, fmt.Errorf("error marshaling memory: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling render service: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading rendered document: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service failed with status code %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// ExportStore is the slice of the memory service the exporter needs:
// owner-scoped point reads and export bookkeeping. *MemoryService is the
// production implementation.
type ExportStore interface {
	GetMemory(ctx context.Context, userID, memoryID uint) (*models.Memory, error)
	RecordExport(ctx context.Context, userID, memoryID uint, sizeBytes int64) (*models.BlogExport, error)
}

// ExportService produces PDF exports of memories and records each export
// against its source memory.
type ExportService struct {
	renderer Renderer
	memories ExportStore
	log      *logger.Logger
}

// NewExportService creates a new export service. renderer may be nil when
// no external render service is configured.
func NewExportService(renderer Renderer, memories ExportStore, log *logger.Logger) *ExportService {
	return &ExportService{
		renderer: renderer,
		memories: memories,
		log:      log,
	}
}

// ExportPDF renders one of the user's memories as a PDF and records a
// BlogExport row for it.
func (s *ExportService) ExportPDF(ctx context.Context, userID, memoryID uint) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrExportUnavailable
	}

	memory, err := s.memories.GetMemory(ctx, userID, memoryID)
	if err != nil {
		return nil, err
	}

	document, err := s.renderer.Render(ctx, memory)
	if err != nil {
		return nil, err
	}

	if _, err := s.memories.RecordExport(ctx, userID, memoryID, int64(len(document))); err != nil {
		s.log.LogError(err, "failed to record export", "memory_id", memoryID)
		return nil, err
	}

	return document, nil
}
