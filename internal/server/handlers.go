package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/shipment-entry/internal/history"
	"github.com/garyjia/shipment-entry/internal/service"
	"github.com/garyjia/shipment-entry/internal/sheet"
)

// BatchProcessor runs one batch of shipment lines through the pipeline.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, text string) (*service.BatchResult, error)
}

// HistoryReader lists previously processed batches.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]*history.Batch, error)
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	processor BatchProcessor
	history   HistoryReader // may be nil
	docPath   string
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(processor BatchProcessor, history HistoryReader, docPath string, logger *zap.Logger) *Handlers {
	return &Handlers{
		processor: processor,
		history:   history,
		docPath:   docPath,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ProcessBatchRequest carries the free-form shipment text, one line per
// shipment.
type ProcessBatchRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListBatchesRequest represents query parameters for listing batches
type ListBatchesRequest struct {
	Limit int `form:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ProcessBatch handles POST /api/batches
func (h *Handlers) ProcessBatch(c *gin.Context) {
	var req ProcessBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid batch request", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "text is required",
		})
		return
	}

	result, err := h.processor.ProcessBatch(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Error("Batch processing failed", zap.Error(err))
		c.JSON(statusForError(err), Response{
			Success: false,
			Error:   "batch processing failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// ListBatches handles GET /api/batches
func (h *Handlers) ListBatches(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, Response{
			Success: false,
			Error:   "batch history is not configured",
		})
		return
	}

	var req ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	batches, err := h.history.Recent(c.Request.Context(), req.Limit)
	if err != nil {
		h.logger.Error("Failed to list batches", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve batch history",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    batches,
	})
}

// DownloadDocument handles GET /api/document
func (h *Handlers) DownloadDocument(c *gin.Context) {
	if _, err := os.Stat(h.docPath); err != nil {
		h.logger.Error("Declaration document unavailable",
			zap.String("path", h.docPath), zap.Error(err))
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "declaration document not found",
		})
		return
	}

	c.FileAttachment(h.docPath, filepath.Base(h.docPath))
}

// statusForError maps pipeline failures to HTTP status codes. A moved
// watermark is a retryable conflict, a missing template is a deployment
// problem.
func statusForError(err error) int {
	switch {
	case errors.Is(err, sheet.ErrRowConflict):
		return http.StatusConflict
	case errors.Is(err, sheet.ErrTemplateNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
