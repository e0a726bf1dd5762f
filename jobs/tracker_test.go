// SPDX-License-Identifier: GPL-3.0-only

package jobs

import (
	"testing"
	"time"
)

func TestJobLifecycle(t *testing.T) {
	tracker := NewTracker(time.Hour, time.Minute)
	defer tracker.Stop()

	id := tracker.Create()
	if id == "" {
		t.Fatal("Create should return a job id")
	}

	job, ok := tracker.Get(id)
	if !ok {
		t.Fatal("job should exist after Create")
	}
	if job.Status != Processing || job.Progress != 0 {
		t.Errorf("new job = %+v, want processing at 0", job)
	}

	tracker.SetProgress(id, 40, "Normalizing rows")
	job, _ = tracker.Get(id)
	if job.Progress != 40 || job.Message != "Normalizing rows" {
		t.Errorf("after SetProgress = %+v", job)
	}

	tracker.Complete(id, map[string]int{"imported": 3})
	job, _ = tracker.Get(id)
	if job.Status != Completed || job.Progress != 100 {
		t.Errorf("after Complete = %+v", job)
	}

	// A finished job ignores further progress updates.
	tracker.SetProgress(id, 10, "late update")
	job, _ = tracker.Get(id)
	if job.Progress != 100 {
		t.Errorf("finished job progress changed to %d", job.Progress)
	}
}

func TestFailClampsProgress(t *testing.T) {
	tracker := NewTracker(time.Hour, time.Minute)
	defer tracker.Stop()

	id := tracker.Create()
	tracker.SetProgress(id, 55, "halfway")
	tracker.Fail(id, "storage unavailable")

	job, ok := tracker.Get(id)
	if !ok {
		t.Fatal("job should exist after Fail")
	}
	if job.Status != JobFailed || job.Error != "storage unavailable" {
		t.Errorf("after Fail = %+v", job)
	}
	if job.Progress != 100 {
		t.Errorf("failed job progress = %d, want 100", job.Progress)
	}
}

func TestSetProgressClampsRange(t *testing.T) {
	tracker := NewTracker(time.Hour, time.Minute)
	defer tracker.Stop()

	id := tracker.Create()
	tracker.SetProgress(id, 150, "over")
	if job, _ := tracker.Get(id); job.Progress != 100 {
		t.Errorf("progress = %d, want clamped to 100", job.Progress)
	}
	tracker.SetProgress(id, -5, "under")
	if job, _ := tracker.Get(id); job.Progress != 0 {
		t.Errorf("progress = %d, want clamped to 0", job.Progress)
	}
}

func TestSweepEvictsOldJobs(t *testing.T) {
	tracker := NewTracker(time.Hour, time.Minute)
	defer tracker.Stop()

	old := tracker.Create()
	fresh := tracker.Create()
	tracker.Complete(old, nil)
	tracker.Complete(fresh, nil)

	evicted := tracker.Sweep(time.Now().Add(30 * time.Minute))
	if evicted != 0 {
		t.Errorf("nothing should be evicted before retention, got %d", evicted)
	}

	evicted = tracker.Sweep(time.Now().Add(2 * time.Hour))
	if evicted != 2 {
		t.Errorf("evicted = %d, want 2", evicted)
	}

	// An evicted job is indistinguishable from one that never existed.
	if _, ok := tracker.Get(old); ok {
		t.Error("evicted job should not be found")
	}
	if _, ok := tracker.Get("no-such-job"); ok {
		t.Error("unknown job should not be found")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	tracker := NewTracker(time.Hour, time.Minute)
	defer tracker.Stop()

	id := tracker.Create()
	job, _ := tracker.Get(id)
	job.Progress = 77

	fresh, _ := tracker.Get(id)
	if fresh.Progress != 0 {
		t.Errorf("mutating a snapshot changed tracker state: %d", fresh.Progress)
	}
}
