// Package tokens implements the Token Tracker and the Budget/Rate Guards
// (spec §4.K): per-job token accounting against job_token_stats, a per-user
// sliding-window rate limiter against rate_limit_tracker, and a per-(user,
// month) cost budget against user_monthly_budget. Every update is a single
// atomic SQL statement; nothing here holds state in memory.
package tokens

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wikiforge/wikiforge/pkg/store"
)

// ErrNotFound is returned when a token-stats row doesn't exist for a job.
var ErrNotFound = errors.New("tokens: job token stats not found")

const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

// Stats mirrors the job_token_stats row.
type Stats struct {
	JobID                    string
	ChunkingTotalTokens      int64
	ChunkingTotalChunks      int64
	ProviderPromptTokens     int64
	ProviderCompletionTokens int64
	ProviderTotalTokens      int64
}

// Tracker owns all reads and writes to job_token_stats.
type Tracker struct {
	db *store.Client
}

// NewTracker constructs a Tracker over an already-migrated store.Client.
func NewTracker(db *store.Client) *Tracker {
	return &Tracker{db: db}
}

// InitializeJobTokens creates the zeroed token-stats row for a new job.
func (t *Tracker) InitializeJobTokens(ctx context.Context, jobID string) error {
	_, err := t.db.ExecuteInsert(ctx,
		`INSERT OR IGNORE INTO job_token_stats (job_id, updated_at) VALUES (?, ?)`,
		jobID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("initialize job tokens: %w", err)
	}
	return nil
}

// UpdateChunkingTokens atomically increments the chunking-stage totals.
func (t *Tracker) UpdateChunkingTokens(ctx context.Context, jobID string, tokensDelta, chunksDelta int64) error {
	affected, err := t.db.Execute(ctx, `UPDATE job_token_stats SET
		chunking_total_tokens = chunking_total_tokens + ?,
		chunking_total_chunks = chunking_total_chunks + ?,
		updated_at = ?
		WHERE job_id = ?`, tokensDelta, chunksDelta, formatTime(time.Now()), jobID)
	if err != nil {
		return fmt.Errorf("update chunking tokens: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProviderTokens atomically increments the completion-provider totals.
func (t *Tracker) UpdateProviderTokens(ctx context.Context, jobID string, promptTokens, completionTokens int64) error {
	affected, err := t.db.Execute(ctx, `UPDATE job_token_stats SET
		provider_prompt_tokens = provider_prompt_tokens + ?,
		provider_completion_tokens = provider_completion_tokens + ?,
		provider_total_tokens = provider_total_tokens + ?,
		updated_at = ?
		WHERE job_id = ?`, promptTokens, completionTokens, promptTokens+completionTokens, formatTime(time.Now()), jobID)
	if err != nil {
		return fmt.Errorf("update provider tokens: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetJobTokens returns the current token-stats row for a job.
func (t *Tracker) GetJobTokens(ctx context.Context, jobID string) (*Stats, error) {
	var s Stats
	err := t.db.FetchOne(ctx, func(scan func(...interface{}) error) error {
		return scan(&s.JobID, &s.ChunkingTotalTokens, &s.ChunkingTotalChunks,
			&s.ProviderPromptTokens, &s.ProviderCompletionTokens, &s.ProviderTotalTokens)
	}, `SELECT job_id, chunking_total_tokens, chunking_total_chunks,
		provider_prompt_tokens, provider_completion_tokens, provider_total_tokens
		FROM job_token_stats WHERE job_id = ?`, jobID)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job tokens: %w", err)
	}
	return &s, nil
}

// ResetJobTokens zeroes every counter for a job, used by RetryJob.
func (t *Tracker) ResetJobTokens(ctx context.Context, jobID string) error {
	_, err := t.db.Execute(ctx, `UPDATE job_token_stats SET
		chunking_total_tokens = 0,
		chunking_total_chunks = 0,
		provider_prompt_tokens = 0,
		provider_completion_tokens = 0,
		provider_total_tokens = 0,
		updated_at = ?
		WHERE job_id = ?`, formatTime(time.Now()), jobID)
	if err != nil {
		return fmt.Errorf("reset job tokens: %w", err)
	}
	return nil
}
