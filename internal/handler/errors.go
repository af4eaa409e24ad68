package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlosedAG/market-creation/internal/engine"
	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/scraper"
	"github.com/AlosedAG/market-creation/internal/service"
)

// writeError maps a workflow error onto a status code and a message safe to
// show clients. The full error is attached to the context for the request
// logger.
func writeError(c *gin.Context, err error, retryAfter time.Duration) {
	status, msg := classifyError(err)

	if status == http.StatusServiceUnavailable && retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func classifyError(err error) (int, string) {
	var pe *llm.ProviderError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, engine.ErrExhaustedRetries):
		return http.StatusServiceUnavailable, "provider quota exhausted, try again later"
	case errors.Is(err, scraper.ErrSiteUnreachable):
		return http.StatusBadGateway, "could not fetch the page"
	case errors.Is(err, engine.ErrMalformedResponse):
		return http.StatusBadGateway, "model returned malformed output"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled"
	case errors.As(err, &pe):
		return http.StatusBadGateway, "provider rejected the request"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
