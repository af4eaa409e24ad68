// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AlosedAG/market-creation/internal/config"
	"github.com/AlosedAG/market-creation/internal/handler"
	"github.com/AlosedAG/market-creation/internal/middleware"
	"github.com/AlosedAG/market-creation/internal/storage"
)

// Deps are the already-built components the routes are served by.
type Deps struct {
	Landscape handler.Landscape
	Updater   handler.CompanyUpdater
	CallRepo  storage.LLMCallRepository // nil when auditing is off
	Gatherer  prometheus.Gatherer
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	health := handler.NewHealthHandler(cfg.LLM.Provider, cfg.LLM.Model())
	research := handler.NewResearchHandler(deps.Landscape, deps.Updater, cfg.Engine.Cooldown)
	admin := handler.NewAdminHandler(deps.CallRepo, logger)

	r.GET("/healthz", health.Healthz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/markets", research.CreateMarket)
		authed.POST("/competitors", research.FindCompetitors)
		authed.POST("/products", research.ExtractProduct)
	}

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		adminGroup.GET("/stats", admin.Stats)
		adminGroup.GET("/calls", admin.Calls)
		adminGroup.GET("/calls/:run_id", admin.Call)
	}
}
