package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"memory-keeper/backend/internal/models"
	"memory-keeper/backend/pkg/cache"
	"memory-keeper/backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrMemoryNotFound = errors.New("memory not found")

// MemoryService handles memory records: creation by the compiler, dashboard
// reads, share links, and export bookkeeping. Every read is scoped to the
// owning user except shared-link reads, where the link token is the
// capability.
type MemoryService struct {
	db      *gorm.DB
	cache   *cache.Cache
	log     *logger.Logger
	baseURL string
}

// NewMemoryService creates a new memory service. cache may be nil.
func NewMemoryService(db *gorm.DB, listCache *cache.Cache, log *logger.Logger, baseURL string) *MemoryService {
	return &MemoryService{
		db:      db,
		cache:   listCache,
		log:     log,
		baseURL: baseURL,
	}
}

func listCacheKey(userID uint) string {
	return fmt.Sprintf("memories:user:%d", userID)
}

// CreateMemory persists a new memory record and invalidates the owner's
// cached dashboard list.
func (s *MemoryService) CreateMemory(ctx context.Context, memory *models.Memory) (*models.Memory, error) {
	memory.Tags = memory.Tags.Dedupe()

	if err := s.db.Create(memory).Error; err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, listCacheKey(memory.UserID)); err != nil {
		s.log.Warn("failed to invalidate memory list cache", "user_id", memory.UserID, "error", err.Error())
	}

	return memory, nil
}

// ListMemories returns the user's memories newest-first, serving from the
// cache when possible.
func (s *MemoryService) ListMemories(ctx context.Context, userID uint) ([]models.Memory, error) {
	var memories []models.Memory
	if err := s.cache.GetJSON(ctx, listCacheKey(userID), &memories); err == nil {
		return memories, nil
	}

	result := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&memories)
	if result.Error != nil {
		return nil, result.Error
	}

	if err := s.cache.SetJSON(ctx, listCacheKey(userID), memories); err != nil {
		s.log.Warn("failed to cache memory list", "user_id", userID, "error", err.Error())
	}

	return memories, nil
}

// GetMemory returns one of the user's memories by id. The user_id filter is
// part of the query, so a point read can never leak another user's record.
func (s *MemoryService) GetMemory(ctx context.Context, userID, memoryID uint) (*models.Memory, error) {
	var memory models.Memory
	result := s.db.Where("id = ? AND user_id = ?", memoryID, userID).First(&memory)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, result.Error
	}
	return &memory, nil
}

// GetSharedMemory returns a memory by its share-link token. No auth: the
// unguessable token is the capability, matching the public share URLs.
func (s *MemoryService) GetSharedMemory(ctx context.Context, token string) (*models.Memory, error) {
	if token == "" {
		return nil, ErrMemoryNotFound
	}

	var memory models.Memory
	result := s.db.Where("share_link = ?", token).First(&memory)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, result.Error
	}
	return &memory, nil
}

// CreateShareLink assigns a share token to one of the user's memories and
// returns the public URL. Calling it again for the same memory returns the
// existing link.
func (s *MemoryService) CreateShareLink(ctx context.Context, userID, memoryID uint) (string, error) {
	memory, err := s.GetMemory(ctx, userID, memoryID)
	if err != nil {
		return "", err
	}

	if memory.ShareLink == "" {
		memory.ShareLink = uuid.New().String()
		if err := s.db.Model(memory).Update("share_link", memory.ShareLink).Error; err != nil {
			return "", err
		}

		if err := s.cache.Invalidate(ctx, listCacheKey(userID)); err != nil {
			s.log.Warn("failed to invalidate memory list cache", "user_id", userID, "error", err.Error())
		}
	}

	return fmt.Sprintf("%s/shared/%s", s.baseURL, memory.ShareLink), nil
}

// RecordExport stores a BlogExport row linking an exported document back to
// its source memory.
func (s *MemoryService) RecordExport(ctx context.Context, userID, memoryID uint, sizeBytes int64) (*models.BlogExport, error) {
	if _, err := s.GetMemory(ctx, userID, memoryID); err != nil {
		return nil, err
	}

	export := &models.BlogExport{
		MemoryID:  memoryID,
		UserID:    userID,
		Format:    "pdf",
		SizeBytes: sizeBytes,
		CreatedAt: time.Now(),
	}

	if err := s.db.Create(export).Error; err != nil {
		return nil, err
	}
	return export, nil
}

// GetExport returns the most recent export record for a memory.
func (s *MemoryService) GetExport(ctx context.Context, userID, memoryID uint) (*models.BlogExport, error) {
	var export models.BlogExport
	result := s.db.Where("memory_id = ? AND user_id = ?", memoryID, userID).
		Order("created_at DESC").
		First(&export)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, result.Error
	}
	return &export, nil
}
