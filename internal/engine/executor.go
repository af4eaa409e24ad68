package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/metrics"
)

// ErrExhaustedRetries is returned once every attempt ended in a transient
// provider failure. Callers should tell the user to try again later.
var ErrExhaustedRetries = errors.New("max patience reached")

// Default executor tuning. The cooldown is longer than a one-minute quota window.
const (
	DefaultMaxAttempts = 15
	DefaultCooldown    = 65 * time.Second
	DefaultMinInterval = 6 * time.Second
)

// ExecutorOptions configures an Executor. A non-positive MaxAttempts, a
// negative Cooldown or a nil Clock fall back to the defaults.
type ExecutorOptions struct {
	MaxAttempts int
	Cooldown    time.Duration
	Clock       Clock
	Metrics     *metrics.Metrics
}

// Executor sends a request to the provider, throttled, and keeps retrying
// transient failures with a fixed cooldown until it succeeds, hits a fatal
// error, or runs out of attempts.
type Executor struct {
	client      llm.Client
	throttle    *Throttle
	maxAttempts int
	cooldown    time.Duration
	clock       Clock
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewExecutor(client llm.Client, throttle *Throttle, opts ExecutorOptions, logger *zap.Logger) *Executor {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Cooldown < 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if throttle == nil {
		throttle = NewThrottle(DefaultMinInterval, opts.Clock)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		client:      client,
		throttle:    throttle,
		maxAttempts: opts.MaxAttempts,
		cooldown:    opts.Cooldown,
		clock:       opts.Clock,
		metrics:     opts.Metrics,
		logger:      logger,
	}
}

// Execute returns the raw text of the first successful attempt.
func (e *Executor) Execute(ctx context.Context, req llm.Request) (string, error) {
	text, _, err := e.execute(ctx, req)
	return text, err
}

// execute also reports how many attempts were made.
func (e *Executor) execute(ctx context.Context, req llm.Request) (string, int, error) {
	provider := e.client.ProviderName()
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := e.throttle.Wait(ctx); err != nil {
			return "", attempt - 1, err
		}

		text, err := e.client.Generate(ctx, req)
		if err == nil {
			e.metrics.ObserveAttempt(provider, metrics.OutcomeSuccess)
			return text, attempt, nil
		}

		if !llm.IsTransient(err) {
			e.metrics.ObserveAttempt(provider, metrics.OutcomeFatal)
			return "", attempt, err
		}

		e.metrics.ObserveAttempt(provider, metrics.OutcomeTransient)
		lastErr = err
		e.logger.Warn("provider quota hit, waiting before retry",
			zap.String("provider", provider),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.maxAttempts),
			zap.Duration("cooldown", e.cooldown),
			zap.Error(err),
		)

		e.metrics.ObserveCooldown()
		if err := e.clock.Sleep(ctx, e.cooldown); err != nil {
			return "", attempt, err
		}
	}

	return "", e.maxAttempts, fmt.Errorf("%w after %d attempts: %v", ErrExhaustedRetries, e.maxAttempts, lastErr)
}
