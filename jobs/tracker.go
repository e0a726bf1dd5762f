// SPDX-License-Identifier: GPL-3.0-only

// Package jobs tracks asynchronous background work (bulk imports, upload
// scans) by opaque id, with pollable progress and a time-boxed retention
// sweep bounding memory.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	Processing Status = "processing"
	Completed  Status = "completed"
	JobFailed  Status = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Result    any       `json:"result"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	retention time.Duration
	sweepEach time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewTracker(retention, sweepEach time.Duration) *Tracker {
	if retention <= 0 {
		retention = time.Hour
	}
	if sweepEach <= 0 {
		sweepEach = 15 * time.Minute
	}
	return &Tracker{
		jobs:      make(map[string]*Job),
		retention: retention,
		sweepEach: sweepEach,
		stop:      make(chan struct{}),
	}
}

// Create registers a new job in processing state at progress 0 and returns
// its id.
func (t *Tracker) Create() string {
	id := uuid.NewString()
	t.mu.Lock()
	t.jobs[id] = &Job{
		ID:        id,
		Status:    Processing,
		Progress:  0,
		Message:   "Job started",
		CreatedAt: time.Now(),
	}
	t.mu.Unlock()
	return id
}

// SetProgress records progress and a human message. Callers are the single
// writer per job and are expected to keep progress non-decreasing; the
// tracker does not reject out-of-order updates.
func (t *Tracker) SetProgress(id string, progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || job.Status != Processing {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	job.Progress = progress
	job.Message = message
}

func (t *Tracker) Complete(id string, result any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Status = Completed
	job.Progress = 100
	job.Message = "Job completed"
	job.Result = result
}

func (t *Tracker) Fail(id string, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Status = JobFailed
	job.Progress = 100
	job.Message = "Job failed"
	job.Error = errMsg
}

// Get returns a snapshot of the job. Evicted and never-existing ids are both
// reported as absent.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Sweep removes jobs older than the retention window regardless of terminal
// state and returns how many were evicted.
func (t *Tracker) Sweep(now time.Time) int {
	cutoff := now.Add(-t.retention)
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for id, job := range t.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(t.jobs, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs the periodic retention sweep on its own timer until Stop
// is called. Request handling never waits on it.
func (t *Tracker) StartSweeper() {
	go func() {
		ticker := time.NewTicker(t.sweepEach)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				t.Sweep(now)
			case <-t.stop:
				return
			}
		}
	}()
}

func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
