package model

import "time"

// Task names used in the audit log and metrics.
const (
	TaskAnalyzeMarket  = "analyze_market"
	TaskSearch         = "search_and_analyze"
	TaskExtractProduct = "extract_product_data"
)

// LLMCall tracks one task execution against an LLM provider for cost monitoring.
// Only metadata is kept; the model output itself is never stored.
type LLMCall struct {
	ID           int64     `db:"id" json:"id"`
	RunID        string    `db:"run_id" json:"run_id"`
	Task         string    `db:"task" json:"task"`
	Subject      string    `db:"subject" json:"subject"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Attempts     int       `db:"attempts" json:"attempts"`
	Success      bool      `db:"success" json:"success"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
