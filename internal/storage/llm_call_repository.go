package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/AlosedAG/market-creation/internal/model"
)

// ErrNotFound is returned when a requested audit row doesn't exist.
var ErrNotFound = errors.New("llm call not found")

// TaskSummary aggregates the audit log for one task.
type TaskSummary struct {
	Task        string  `db:"task" json:"task"`
	Runs        int64   `db:"runs" json:"runs"`
	Succeeded   int64   `db:"succeeded" json:"succeeded"`
	Attempts    int64   `db:"attempts" json:"attempts"`
	AvgDuration float64 `db:"avg_duration_ms" json:"avg_duration_ms"`
}

// LLMCallRepository persists one row per task run for quota and cost tracking.
type LLMCallRepository interface {
	Create(ctx context.Context, call *model.LLMCall) error
	GetByRunID(ctx context.Context, runID string) (*model.LLMCall, error)
	Count(ctx context.Context) (int64, error)
	CountByTask(ctx context.Context, task string) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.LLMCall, error)
	Summarize(ctx context.Context) ([]TaskSummary, error)
}

type sqliteLLMCallRepository struct {
	db *sqlx.DB
}

func NewLLMCallRepository(db *sqlx.DB) LLMCallRepository {
	return &sqliteLLMCallRepository{db: db}
}

func (r *sqliteLLMCallRepository) Create(ctx context.Context, call *model.LLMCall) error {
	result, err := r.db.NamedExecContext(ctx, `
		INSERT INTO llm_calls (run_id, task, subject, provider, model, attempts, success, error_message, duration_ms, created_at)
		VALUES (:run_id, :task, :subject, :provider, :model, :attempts, :success, :error_message, :duration_ms, :created_at)
	`, call)
	if err != nil {
		return fmt.Errorf("creating llm call record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	call.ID = id
	return nil
}

func (r *sqliteLLMCallRepository) GetByRunID(ctx context.Context, runID string) (*model.LLMCall, error) {
	var call model.LLMCall
	err := r.db.GetContext(ctx, &call, "SELECT * FROM llm_calls WHERE run_id = ?", runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting llm call %s: %w", runID, err)
	}
	return &call, nil
}

func (r *sqliteLLMCallRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls")
	return count, err
}

func (r *sqliteLLMCallRepository) CountByTask(ctx context.Context, task string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM llm_calls WHERE task = ?", task)
	return count, err
}

// ListRecent returns the newest rows first.
func (r *sqliteLLMCallRepository) ListRecent(ctx context.Context, limit int) ([]model.LLMCall, error) {
	calls := []model.LLMCall{}
	err := r.db.SelectContext(ctx, &calls,
		"SELECT * FROM llm_calls ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing llm calls: %w", err)
	}
	return calls, nil
}

func (r *sqliteLLMCallRepository) Summarize(ctx context.Context) ([]TaskSummary, error) {
	summaries := []TaskSummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT task,
		       COUNT(*) AS runs,
		       COALESCE(SUM(success), 0) AS succeeded,
		       COALESCE(SUM(attempts), 0) AS attempts,
		       COALESCE(AVG(duration_ms), 0) AS avg_duration_ms
		FROM llm_calls
		GROUP BY task
		ORDER BY task`)
	if err != nil {
		return nil, fmt.Errorf("summarizing llm calls: %w", err)
	}
	return summaries, nil
}
