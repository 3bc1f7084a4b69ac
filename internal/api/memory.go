package api

import (
	"net/http"
	"strconv"

	"memory-keeper/backend/internal/service"
	"memory-keeper/backend/pkg/logger"
	"memory-keeper/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// CompileRequest is the body of POST /generate-memory-blog. The field is
// named memoryId for compatibility with the original client, but its value
// is the chat session identifier being compiled.
type CompileRequest struct {
	MemoryID string `json:"memoryId" binding:"required"`
}

// MemoryRefRequest carries a numeric memory id for export and share calls.
type MemoryRefRequest struct {
	MemoryID uint `json:"memoryId" binding:"required"`
}

// MemoryController handles memory compilation, browsing, export, and sharing
type MemoryController struct {
	compiler *service.Compiler
	memories *service.MemoryService
	exports  *service.ExportService
	logger   *logger.Logger
}

// NewMemoryController creates a new memory controller
func NewMemoryController(
	compiler *service.Compiler,
	memories *service.MemoryService,
	exports *service.ExportService,
	logger *logger.Logger,
) *MemoryController {
	return &MemoryController{
		compiler: compiler,
		memories: memories,
		exports:  exports,
		logger:   logger,
	}
}

// GenerateBlog handles POST /generate-memory-blog: compiles a session's
// transcript into a memory record and returns both the stored record and
// the raw draft.
func (ct *MemoryController) GenerateBlog(c *gin.Context) {
	userID, _ := middleware.CallerID(c)

	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	memory, draft, err := ct.compiler.Compile(c.Request.Context(), userID, req.MemoryID)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case service.ErrNotAuthenticated:
			status = http.StatusUnauthorized
		case service.ErrNoContent:
			status = http.StatusBadRequest
		}
		ct.logger.Error("Error generating memory blog", "error", err.Error(), "session_id", req.MemoryID)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"memory":  memory,
		"blog":    draft,
	})
}

// ListMemories returns the caller's memories newest-first
func (ct *MemoryController) ListMemories(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	memories, err := ct.memories.ListMemories(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"memories": memories,
		"count":    len(memories),
	})
}

// GetMemory returns one of the caller's memories by id
func (ct *MemoryController) GetMemory(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	memoryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid memory ID"})
		return
	}

	memory, err := ct.memories.GetMemory(c.Request.Context(), userID, uint(memoryID))
	if err != nil {
		if err == service.ErrMemoryNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Memory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, memory)
}

// ExportPDF handles POST /export-memory-pdf: renders a memory through the
// external renderer and streams the PDF back.
func (ct *MemoryController) ExportPDF(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req MemoryRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	document, err := ct.exports.ExportPDF(c.Request.Context(), userID, req.MemoryID)
	if err != nil {
		switch err {
		case service.ErrExportUnavailable:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PDF export is not available"})
		case service.ErrMemoryNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "Memory not found"})
		default:
			ct.logger.Error("Error exporting memory", "error", err.Error(), "memory_id", req.MemoryID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Header("Content-Disposition", "attachment; filename=memory.pdf")
	c.Data(http.StatusOK, "application/pdf", document)
}

// CreateShareLink handles POST /create-shareable-link
func (ct *MemoryController) CreateShareLink(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req MemoryRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	link, err := ct.memories.CreateShareLink(c.Request.Context(), userID, req.MemoryID)
	if err != nil {
		if err == service.ErrMemoryNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Memory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"link": link})
}

// GetSharedMemory serves a shared memory by its link token; no auth, the
// token is the capability.
func (ct *MemoryController) GetSharedMemory(c *gin.Context) {
	memory, err := ct.memories.GetSharedMemory(c.Request.Context(), c.Param("token"))
	if err != nil {
		if err == service.ErrMemoryNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Memory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, memory)
}
