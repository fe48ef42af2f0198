package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	jobs map[uuid.UUID]*Job
	now  func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{jobs: make(map[uuid.UUID]*Job), now: now}
}

func (m *memoryStore) add(jobType string, payload string) uuid.UUID {
	jobID := uuid.New()
	m.jobs[jobID] = &Job{
		ID:      jobID,
		Type:    jobType,
		Payload: json.RawMessage(payload),
		Status:  StatusPending,
		RunAt:   m.now(),
	}
	return jobID
}

func (m *memoryStore) ClaimNext(context.Context) (*Job, error) {
	for _, job := range m.jobs {
		if job.Status == StatusPending && !job.RunAt.After(m.now()) {
			job.Status = StatusRunning
			claimed := *job
			return &claimed, nil
		}
	}
	return nil, ErrNoJob
}

func (m *memoryStore) MarkCompleted(_ context.Context, jobID uuid.UUID) error {
	m.jobs[jobID].Status = StatusCompleted
	return nil
}

func (m *memoryStore) MarkFailed(_ context.Context, jobID uuid.UUID, attempts int, runAt time.Time, status Status, lastError string) error {
	job := m.jobs[jobID]
	job.Attempts = attempts
	job.RunAt = runAt
	job.Status = status
	job.LastError = &lastError
	return nil
}

func newTestWorker(store *memoryStore, now *time.Time) *Worker {
	worker := NewWorker(store, nil)
	worker.now = func() time.Time { return *now }
	return worker
}

func TestWorker_CompletesJob(t *testing.T) {
	now := time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore(func() time.Time { return now })
	worker := newTestWorker(store, &now)

	var seen string
	worker.Register("snapshot", func(_ context.Context, payload json.RawMessage) error {
		seen = string(payload)
		return nil
	})
	jobID := store.add("snapshot", `{"user_id":"abc"}`)

	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Equal(t, `{"user_id":"abc"}`, seen)
	assert.Equal(t, StatusCompleted, store.jobs[jobID].Status)
}

func TestWorker_RetriesWithBackoffThenFailsPermanently(t *testing.T) {
	now := time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore(func() time.Time { return now })
	worker := newTestWorker(store, &now)

	calls := 0
	worker.Register("sync", func(context.Context, json.RawMessage) error {
		calls++
		return errors.New("upstream down")
	})
	jobID := store.add("sync", `{}`)

	// First failure: back on the queue, 30s backoff.
	require.NoError(t, worker.RunOnce(context.Background()))
	job := store.jobs[jobID]
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, now.Add(30*time.Second), job.RunAt)

	// Not runnable until the backoff elapses.
	assert.ErrorIs(t, worker.RunOnce(context.Background()), ErrNoJob)

	now = now.Add(time.Minute)
	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, now.Add(time.Minute), job.RunAt)

	// Third failure exhausts the attempt budget.
	now = now.Add(2 * time.Minute)
	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, 3, job.Attempts)
	require.NotNil(t, job.LastError)
	assert.Equal(t, "upstream down", *job.LastError)
	assert.Equal(t, 3, calls)

	// Dead jobs stay dead.
	now = now.Add(time.Hour)
	assert.ErrorIs(t, worker.RunOnce(context.Background()), ErrNoJob)
}

func TestWorker_UnknownJobTypeFailsImmediately(t *testing.T) {
	now := time.Date(2024, time.August, 15, 12, 0, 0, 0, time.UTC)
	store := newMemoryStore(func() time.Time { return now })
	worker := newTestWorker(store, &now)

	jobID := store.add("mystery", `{}`)
	require.NoError(t, worker.RunOnce(context.Background()))
	assert.Equal(t, StatusFailed, store.jobs[jobID].Status)
}

func TestBackoffIsCapped(t *testing.T) {
	assert.Equal(t, 30*time.Second, backoff(1))
	assert.Equal(t, time.Minute, backoff(2))
	assert.Equal(t, 10*time.Minute, backoff(20))
}
