package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AlosedAG/market-creation/internal/storage"
)

const (
	defaultCallsLimit = 20
	maxCallsLimit     = 200
)

// AdminHandler serves the audit log. callRepo is nil when auditing is off.
type AdminHandler struct {
	callRepo storage.LLMCallRepository
	logger   *zap.Logger
}

func NewAdminHandler(callRepo storage.LLMCallRepository, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{callRepo: callRepo, logger: logger}
}

// Stats returns run counts per task.
// Route: GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	if !h.auditEnabled(c) {
		return
	}
	ctx := c.Request.Context()

	total, err := h.callRepo.Count(ctx)
	if err != nil {
		h.internalError(c, "counting llm calls", err)
		return
	}

	tasks, err := h.callRepo.Summarize(ctx)
	if err != nil {
		h.internalError(c, "summarizing llm calls", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"tasks": tasks,
	})
}

// Calls lists the most recent task runs.
// Route: GET /api/v1/admin/calls?limit=20
func (h *AdminHandler) Calls(c *gin.Context) {
	if !h.auditEnabled(c) {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultCallsLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	limit = min(limit, maxCallsLimit)

	calls, err := h.callRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.internalError(c, "listing llm calls", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": calls})
}

// Call returns one run by its run ID.
// Route: GET /api/v1/admin/calls/:run_id
func (h *AdminHandler) Call(c *gin.Context) {
	if !h.auditEnabled(c) {
		return
	}

	call, err := h.callRepo.GetByRunID(c.Request.Context(), c.Param("run_id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
		return
	}
	if err != nil {
		h.internalError(c, "getting llm call", err)
		return
	}

	c.JSON(http.StatusOK, call)
}

func (h *AdminHandler) auditEnabled(c *gin.Context) bool {
	if h.callRepo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "audit log disabled"})
		return false
	}
	return true
}

func (h *AdminHandler) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
