// Package handler contains the HTTP request handlers for the research API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	provider string
	model    string
}

// NewHealthHandler reports provider and model so operators can see which
// backend a deployment is spending quota on.
func NewHealthHandler(provider, model string) *HealthHandler {
	return &HealthHandler{provider: provider, model: model}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "market-creation",
		"provider": h.provider,
		"model":    h.model,
	})
}
