package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"devotional-ai-service/internal/domain"

	"github.com/rs/zerolog"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	logger := zerolog.Nop()
	p := NewPool(2, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	var ran int32
	for i := 0; i < 10; i++ {
		err := p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&ran) < 10 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of 10 tasks ran", atomic.LoadInt32(&ran))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPoolRejectsWhenSaturated(t *testing.T) {
	logger := zerolog.Nop()
	p := NewPool(1, &logger)
	// Not started: the buffer fills and Submit must refuse instead of block.

	var err error
	for i := 0; i < 100; i++ {
		if err = p.Submit(func(ctx context.Context) error { return nil }); err != nil {
			break
		}
	}
	if !errors.Is(err, domain.ErrQueueSaturated) {
		t.Errorf("expected ErrQueueSaturated, got %v", err)
	}
}

func TestPoolRejectsNilTask(t *testing.T) {
	logger := zerolog.Nop()
	p := NewPool(1, &logger)
	if err := p.Submit(nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}
