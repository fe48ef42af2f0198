package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrNoJob reports an empty queue on claim.
var ErrNoJob = errors.New("no job ready to run")

type Job struct {
	ID        uuid.UUID
	Type      string
	Payload   json.RawMessage
	Status    Status
	Attempts  int
	RunAt     time.Time
	LastError *string
	CreatedAt time.Time
}

// Store is the persistence surface the worker needs. Queue implements it on
// Postgres.
type Store interface {
	ClaimNext(ctx context.Context) (*Job, error)
	MarkCompleted(ctx context.Context, jobID uuid.UUID) error
	MarkFailed(ctx context.Context, jobID uuid.UUID, attempts int, runAt time.Time, status Status, lastError string) error
}

type Queue struct {
	db *sql.DB
}

func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db}
}

func (q *Queue) Enqueue(ctx context.Context, jobType string, payload any) (uuid.UUID, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}
	jobID := uuid.New()
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO jobs (id, job_type, payload) VALUES ($1, $2, $3)`,
		jobID, jobType, body)
	return jobID, err
}

// ClaimNext picks the oldest runnable job and flips it to running. SKIP
// LOCKED keeps concurrent workers off the same row.
func (q *Queue) ClaimNext(ctx context.Context) (*Job, error) {
	query := `
		UPDATE jobs
		SET status = 'running'
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'pending' AND run_at <= now()
			ORDER BY run_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, job_type, payload, status, attempts, run_at, last_error, created_at
	`
	var job Job
	err := q.db.QueryRowContext(ctx, query).Scan(
		&job.ID, &job.Type, &job.Payload, &job.Status,
		&job.Attempts, &job.RunAt, &job.LastError, &job.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (q *Queue) MarkCompleted(ctx context.Context, jobID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE jobs SET status = 'completed' WHERE id = $1`, jobID)
	return err
}

func (q *Queue) MarkFailed(ctx context.Context, jobID uuid.UUID, attempts int, runAt time.Time, status Status, lastError string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE jobs SET status = $2, attempts = $3, run_at = $4, last_error = $5 WHERE id = $1`,
		jobID, status, attempts, runAt, lastError)
	return err
}
