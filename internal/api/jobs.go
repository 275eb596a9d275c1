package api

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/market-search-scraper/internal/models"
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// SearchFunc executes one search query and returns its records. Injected so
// handlers can be tested without the scraping stack.
type SearchFunc func(ctx context.Context, q models.Query) ([]models.Record, error)

// Job is one asynchronous search run.
type Job struct {
	ID          string          `json:"id"`
	Term        string          `json:"term"`
	Platform    models.Platform `json:"platform"`
	MaxPages    int             `json:"max_pages"`
	Status      string          `json:"status"`
	Records     []models.Record `json:"records,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// JobManager tracks search jobs in memory and runs them one goroutine each.
type JobManager struct {
	search SearchFunc
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewJobManager(search SearchFunc) *JobManager {
	return &JobManager{
		search: search,
		logger: slog.Default().With("component", "job_manager"),
		jobs:   make(map[string]*Job),
	}
}

// Create registers a job and starts it in the background. The background
// context deliberately outlives the creating request.
func (m *JobManager) Create(q models.Query) *Job {
	job := &Job{
		ID:        uuid.New().String(),
		Term:      q.Term,
		Platform:  q.Platform,
		MaxPages:  q.MaxPages,
		Status:    JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(context.Background(), job.ID, q)

	m.logger.Info("job created", "id", job.ID, "term", q.Term, "platform", string(q.Platform))
	return job
}

func (m *JobManager) run(ctx context.Context, jobID string, q models.Query) {
	m.update(jobID, func(job *Job) {
		job.Status = JobStatusRunning
	})

	records, err := m.search(ctx, q)
	now := time.Now().UTC()

	m.update(jobID, func(job *Job) {
		job.CompletedAt = &now
		if err != nil {
			job.Status = JobStatusFailed
			job.Error = err.Error()
			job.Records = records
			return
		}
		job.Status = JobStatusCompleted
		job.Records = records
	})

	if err != nil {
		m.logger.Error("job failed", "id", jobID, "error", err)
		return
	}
	m.logger.Info("job completed", "id", jobID, "records", len(records))
}

func (m *JobManager) update(jobID string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[jobID]; ok {
		fn(job)
	}
}

// Get returns a snapshot of one job.
func (m *JobManager) Get(jobID string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}

	snapshot := *job
	return &snapshot, nil
}

// List returns all jobs, newest first.
func (m *JobManager) List() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}
