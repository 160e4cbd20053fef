package jobs

import (
	"context"

	"nomina/internal/platform/db"
)

// RunRecorder persists one row per job execution.
type RunRecorder interface {
	StartRun(ctx context.Context, jobType string) (string, error)
	FinishRun(ctx context.Context, runID, status string, details []byte) error
}

type RunStore struct {
	DB db.Querier
}

func NewRunStore(q db.Querier) *RunStore {
	return &RunStore{DB: q}
}

func (s *RunStore) StartRun(ctx context.Context, jobType string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id::text
  `, jobType, StatusRunning).Scan(&id)
	return id, err
}

func (s *RunStore) FinishRun(ctx context.Context, runID, status string, details []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}
