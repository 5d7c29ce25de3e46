// Package jobs tracks asynchronous ingestion jobs between the API and the worker.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown job IDs.
var ErrNotFound = errors.New("job not found")

// Status of an ingestion job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Job is the externally visible state of one queued upload.
type Job struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Status     Status    `json:"status"`
	ParsedRows int       `json:"parsedRows"`
	Updated    int       `json:"updated"`
	Error      string    `json:"error,omitempty"`
	ArchiveURL string    `json:"archiveUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Tracker stores job state.
type Tracker interface {
	Put(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
}

// Memory keeps jobs in process memory.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]Job
}

// NewMemory creates an empty tracker.
func NewMemory() *Memory {
	return &Memory{jobs: make(map[string]Job)}
}

func (m *Memory) Put(_ context.Context, job Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = stamp(job)
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// Redis stores jobs as JSON strings that expire after TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a tracker over an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{client: client, prefix: "schoolattend:job:", ttl: ttl}
}

func (r *Redis) Put(ctx context.Context, job Job) error {
	raw, err := json.Marshal(stamp(job))
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.prefix+job.ID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (Job, error) {
	raw, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrNotFound
	}
	if err != nil {
		return Job{}, err
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

func stamp(job Job) Job {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	return job
}
