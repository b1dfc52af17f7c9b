package memory

import (
	"context"
	"testing"
	"time"

	"devotional-ai-service/internal/config"
	"devotional-ai-service/internal/domain/ports/repository"
)

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		Create: config.ClassLimit{Ceiling: 5, Window: time.Minute},
		Status: config.ClassLimit{Ceiling: 60, Window: time.Minute},
	}
}

func TestRateLimiterCeiling(t *testing.T) {
	r := NewRateLimiter(testLimits())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		dec, err := r.Allow(ctx, "1.2.3.4", repository.ClassCreate)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !dec.Allowed {
			t.Fatalf("request %d rejected under the ceiling", i+1)
		}
	}

	dec, _ := r.Allow(ctx, "1.2.3.4", repository.ClassCreate)
	if dec.Allowed {
		t.Error("6th request within the window must be rejected with ceiling 5")
	}
	if dec.RetryAfter <= 0 {
		t.Error("rejection must carry a retry hint")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	r := NewRateLimiter(testLimits())
	ctx := context.Background()

	base := time.Now()
	r.now = func() time.Time { return base }

	for i := 0; i < 6; i++ {
		_, _ = r.Allow(ctx, "key", repository.ClassCreate)
	}
	if dec, _ := r.Allow(ctx, "key", repository.ClassCreate); dec.Allowed {
		t.Fatal("still inside the window, should be rejected")
	}

	// First request of a new window is accepted regardless of prior usage.
	r.now = func() time.Time { return base.Add(61 * time.Second) }
	if dec, _ := r.Allow(ctx, "key", repository.ClassCreate); !dec.Allowed {
		t.Error("first request after window expiry must be accepted")
	}
}

func TestRateLimiterClassesAreIndependent(t *testing.T) {
	r := NewRateLimiter(testLimits())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = r.Allow(ctx, "key", repository.ClassCreate)
	}
	dec, _ := r.Allow(ctx, "key", repository.ClassStatus)
	if !dec.Allowed {
		t.Error("status polls must not be throttled by create usage")
	}
}

func TestRateLimiterUnknownKeyCountsAsZero(t *testing.T) {
	r := NewRateLimiter(testLimits())
	dec, err := r.Allow(context.Background(), "never-seen", repository.ClassStatus)
	if err != nil || !dec.Allowed {
		t.Errorf("absent record must be treated as zero usage, got allowed=%v err=%v", dec.Allowed, err)
	}
}
