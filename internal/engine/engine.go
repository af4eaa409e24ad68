// Package engine is the LLM request layer: it throttles outbound calls,
// retries transient provider failures, and turns model output into the
// market research records the rest of the application works with.
//
// A task runs synchronously: Engine methods block through every throttle
// wait and cooldown until they have a result, a fatal error, or the
// executor gives up.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/metrics"
	"github.com/AlosedAG/market-creation/internal/model"
)

// DefaultMaxPageChars caps how much scraped text goes into an extraction prompt.
const DefaultMaxPageChars = 8000

// Sampling temperatures per task.
const (
	analyzeTemperature = 0.2
	searchTemperature  = 0.0
	extractTemperature = 0.1
)

// CallRecorder persists one audit row per task run. storage.LLMCallRepository
// satisfies it.
type CallRecorder interface {
	Create(ctx context.Context, call *model.LLMCall) error
}

type Options struct {
	MaxPageChars int
	Recorder     CallRecorder // optional
	Metrics      *metrics.Metrics
	Clock        Clock
}

type Engine struct {
	exec         *Executor
	maxPageChars int
	recorder     CallRecorder
	metrics      *metrics.Metrics
	clock        Clock
	logger       *zap.Logger
}

func New(exec *Executor, opts Options, logger *zap.Logger) *Engine {
	if opts.MaxPageChars <= 0 {
		opts.MaxPageChars = DefaultMaxPageChars
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		exec:         exec,
		maxPageChars: opts.MaxPageChars,
		recorder:     opts.Recorder,
		metrics:      opts.Metrics,
		clock:        opts.Clock,
		logger:       logger,
	}
}

// AnalyzeMarket asks the model for a taxonomy of the market around topic.
// The response is decoded strictly; malformed output is an error.
func (e *Engine) AnalyzeMarket(ctx context.Context, topic string) (model.MarketTaxonomy, error) {
	req := llm.Request{
		Prompt:      buildTaxonomyPrompt(topic),
		Temperature: analyzeTemperature,
		JSONMode:    true,
	}

	var taxonomy model.MarketTaxonomy
	err := e.run(ctx, model.TaskAnalyzeMarket, topic, req, func(text string) error {
		var err error
		taxonomy, err = decodeStrict[model.MarketTaxonomy](text)
		return err
	})
	if err != nil {
		return model.MarketTaxonomy{}, fmt.Errorf("analyzing market %q: %w", topic, err)
	}
	return taxonomy, nil
}

// SearchAndAnalyze runs a search-grounded query and returns whatever list of
// objects the model produced. Search is best effort: any failure is logged
// and yields an empty slice.
func (e *Engine) SearchAndAnalyze(ctx context.Context, query string) []map[string]any {
	req := llm.Request{
		Prompt:      buildSearchPrompt(query),
		Temperature: searchTemperature,
		Grounding:   true,
	}

	results := []map[string]any{}
	err := e.run(ctx, model.TaskSearch, truncateRunes(query, 200), req, func(text string) error {
		results = ParseJSONPayload(text, e.logger)
		return nil
	})
	if err != nil {
		e.logger.Warn("search failed, returning no results", zap.Error(err))
		return []map[string]any{}
	}
	return results
}

// ExtractProductData turns scraped page text into a product record, checking
// each of features. Text beyond the configured page budget is dropped before
// prompting.
func (e *Engine) ExtractProductData(ctx context.Context, rawText string, features []string) (model.ProductRecord, error) {
	text := truncateRunes(rawText, e.maxPageChars)
	if len(text) < len(rawText) {
		e.logger.Debug("truncated page text",
			zap.Int("bytes_in", len(rawText)),
			zap.Int("bytes_out", len(text)),
			zap.Int("max_chars", e.maxPageChars),
		)
	}

	req := llm.Request{
		Prompt:      buildExtractionPrompt(text, features),
		Temperature: extractTemperature,
		JSONMode:    true,
	}

	subject := fmt.Sprintf("%d chars, %d features", len([]rune(text)), len(features))
	var record model.ProductRecord
	err := e.run(ctx, model.TaskExtractProduct, subject, req, func(text string) error {
		var err error
		record, err = decodeStrict[model.ProductRecord](text)
		return err
	})
	if err != nil {
		return model.ProductRecord{}, fmt.Errorf("extracting product data: %w", err)
	}
	return record, nil
}

// run executes req, hands the raw text to handle, and records the outcome.
func (e *Engine) run(ctx context.Context, task, subject string, req llm.Request, handle func(text string) error) error {
	start := e.clock.Now()

	text, attempts, err := e.exec.execute(ctx, req)
	if err == nil {
		err = handle(text)
	}

	elapsed := e.clock.Now().Sub(start)
	status := metrics.StatusOK
	if err != nil {
		status = metrics.StatusFailed
	}
	e.metrics.ObserveTask(task, status, elapsed)
	e.record(ctx, task, subject, attempts, elapsed, err)

	return err
}

func (e *Engine) record(ctx context.Context, task, subject string, attempts int, elapsed time.Duration, runErr error) {
	if e.recorder == nil {
		return
	}

	call := &model.LLMCall{
		RunID:      uuid.NewString(),
		Task:       task,
		Subject:    subject,
		Provider:   e.exec.client.ProviderName(),
		Model:      e.exec.client.ModelName(),
		Attempts:   attempts,
		Success:    runErr == nil,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  e.clock.Now().UTC(),
	}
	if runErr != nil {
		msg := runErr.Error()
		call.ErrorMessage = &msg
	}

	// The audit row is written even when the caller's context was cancelled.
	if err := e.recorder.Create(context.WithoutCancel(ctx), call); err != nil {
		e.logger.Error("recording llm call",
			zap.String("task", task),
			zap.Error(err),
		)
	}
}
