package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlosedAG/market-creation/internal/model"
)

// Landscape is implemented by *service.Creator.
type Landscape interface {
	BuildTaxonomy(ctx context.Context, topic string) (model.MarketTaxonomy, error)
	FindCompetitors(ctx context.Context, topic string, divisions []string) ([]model.CompetitorRecord, error)
}

// CompanyUpdater is implemented by *service.Updater.
type CompanyUpdater interface {
	UpdateCompany(ctx context.Context, url string, features []string) (model.ProductRecord, error)
}

// ResearchHandler exposes the three research workflows. Requests block until
// the engine finishes, which includes provider cooldowns.
type ResearchHandler struct {
	landscape Landscape
	updater   CompanyUpdater
	cooldown  time.Duration
}

// NewResearchHandler creates the handler. cooldown is advertised as
// Retry-After when the provider quota is exhausted.
func NewResearchHandler(landscape Landscape, updater CompanyUpdater, cooldown time.Duration) *ResearchHandler {
	return &ResearchHandler{
		landscape: landscape,
		updater:   updater,
		cooldown:  cooldown,
	}
}

type marketRequest struct {
	Topic  string `json:"topic" binding:"required"`
	Search bool   `json:"search"`
}

type marketResponse struct {
	Taxonomy    model.MarketTaxonomy     `json:"taxonomy"`
	Competitors []model.CompetitorRecord `json:"competitors,omitempty"`
}

// CreateMarket builds a taxonomy, and with "search": true also looks up
// competitors across its divisions.
// Route: POST /api/v1/markets
func (h *ResearchHandler) CreateMarket(c *gin.Context) {
	var req marketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tax, err := h.landscape.BuildTaxonomy(ctx, req.Topic)
	if err != nil {
		writeError(c, err, h.cooldown)
		return
	}

	resp := marketResponse{Taxonomy: tax}
	if req.Search {
		resp.Competitors, err = h.landscape.FindCompetitors(ctx, req.Topic, tax.Divisions)
		if err != nil {
			writeError(c, err, h.cooldown)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

type competitorRequest struct {
	Topic     string   `json:"topic" binding:"required"`
	Divisions []string `json:"divisions"`
}

// FindCompetitors runs a grounded search. An empty list is a normal answer.
// Route: POST /api/v1/competitors
func (h *ResearchHandler) FindCompetitors(c *gin.Context) {
	var req competitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	competitors, err := h.landscape.FindCompetitors(c.Request.Context(), req.Topic, req.Divisions)
	if err != nil {
		writeError(c, err, h.cooldown)
		return
	}

	c.JSON(http.StatusOK, gin.H{"competitors": competitors})
}

type productRequest struct {
	URL      string   `json:"url" binding:"required"`
	Features []string `json:"features"`
}

// ExtractProduct scrapes a product page and returns the structured record.
// Route: POST /api/v1/products
func (h *ResearchHandler) ExtractProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.updater.UpdateCompany(c.Request.Context(), req.URL, req.Features)
	if err != nil {
		writeError(c, err, h.cooldown)
		return
	}

	c.JSON(http.StatusOK, product)
}
