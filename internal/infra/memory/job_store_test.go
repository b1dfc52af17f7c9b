package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"devotional-ai-service/internal/domain"
	"devotional-ai-service/internal/domain/model"

	"github.com/rs/zerolog"
)

func newTestStore() *JobStore {
	logger := zerolog.Nop()
	return NewJobStore(&logger)
}

func TestJobStoreCreateAndGet(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	job, err := s.Create(ctx, "hope", []model.Verse{{Reference: "Jn 3:16", Text: "..."}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.JobStatusPending {
		t.Errorf("expected pending, got %s", got.Status)
	}
	if got.Result != "" || got.Error != "" {
		t.Error("pending job must carry neither result nor error")
	}

	if _, err := s.Get(ctx, "no-such-id"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobStoreTerminalTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("complete sets result only", func(t *testing.T) {
		s := newTestStore()
		job, _ := s.Create(ctx, "hope", nil)
		if err := s.Complete(ctx, job.ID, "a reflection"); err != nil {
			t.Fatalf("complete: %v", err)
		}
		got, _ := s.Get(ctx, job.ID)
		if got.Status != model.JobStatusCompleted || got.Result != "a reflection" || got.Error != "" {
			t.Errorf("bad terminal state: %+v", got)
		}
	})

	t.Run("fail sets error only", func(t *testing.T) {
		s := newTestStore()
		job, _ := s.Create(ctx, "hope", nil)
		if err := s.Fail(ctx, job.ID, "generation_failed"); err != nil {
			t.Fatalf("fail: %v", err)
		}
		got, _ := s.Get(ctx, job.ID)
		if got.Status != model.JobStatusError || got.Error != "generation_failed" || got.Result != "" {
			t.Errorf("bad terminal state: %+v", got)
		}
	})

	t.Run("no transition leaves a terminal state", func(t *testing.T) {
		s := newTestStore()
		job, _ := s.Create(ctx, "hope", nil)
		_ = s.Complete(ctx, job.ID, "first")
		_ = s.Fail(ctx, job.ID, "late failure")
		got, _ := s.Get(ctx, job.ID)
		if got.Status != model.JobStatusCompleted || got.Result != "first" || got.Error != "" {
			t.Errorf("terminal state was overwritten: %+v", got)
		}
	})

	t.Run("late transition after eviction recreates an orphaned record", func(t *testing.T) {
		s := newTestStore()
		if err := s.Complete(ctx, "evicted-id", "late result"); err != nil {
			t.Fatalf("complete on missing id must not fail: %v", err)
		}
		got, err := s.Get(ctx, "evicted-id")
		if err != nil {
			t.Fatalf("orphaned record missing: %v", err)
		}
		if got.Status != model.JobStatusCompleted || got.Result != "late result" {
			t.Errorf("bad orphaned record: %+v", got)
		}
	})
}

func TestJobStoreSweepExpired(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	old, _ := s.Create(ctx, "old topic", nil)
	fresh, _ := s.Create(ctx, "fresh topic", nil)
	_ = s.Complete(ctx, old.ID, "done")

	// Age the first record past the sweep threshold.
	s.mu.Lock()
	aged := *s.jobs[old.ID]
	aged.StartedAt = time.Now().Add(-time.Hour)
	s.jobs[old.ID] = &aged
	s.mu.Unlock()

	removed := s.SweepExpired(ctx, 10*time.Minute)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := s.Get(ctx, old.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("expired job still present after sweep, regardless of status")
	}
	if _, err := s.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh job swept by mistake: %v", err)
	}
}

func TestJobStoreScheduleDeletion(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	job, _ := s.Create(ctx, "hope", nil)
	_ = s.Complete(ctx, job.ID, "done")
	s.ScheduleDeletion(ctx, job.ID, 20*time.Millisecond)

	// Still visible inside the grace window.
	if _, err := s.Get(ctx, job.ID); err != nil {
		t.Fatalf("job gone before grace window elapsed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := s.Get(ctx, job.ID); errors.Is(err, domain.ErrNotFound) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("job not deleted after the scheduled delay")
}

func TestJobStoreConcurrentAccess(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	job, _ := s.Create(ctx, "hope", nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Complete(ctx, job.ID, "result text")
	}()
	// A concurrent reader sees pending or completed, never a torn record.
	for i := 0; i < 100; i++ {
		got, err := s.Get(ctx, job.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		switch got.Status {
		case model.JobStatusPending:
			if got.Result != "" {
				t.Fatal("pending record carries a result")
			}
		case model.JobStatusCompleted:
			if got.Result != "result text" {
				t.Fatal("completed record missing its result")
			}
		default:
			t.Fatalf("unexpected status %s", got.Status)
		}
	}
	<-done
}
