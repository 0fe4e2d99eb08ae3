package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStampsForTest(t *testing.T) (*RedisStamps, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStamps(client, "brl", DefaultGraceSeconds), mr
}

func TestRedisStampsBoundaryVector(t *testing.T) {
	l, _ := newRedisStampsForTest(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	l.SetClock(func() time.Time { return now })

	got, err := l.CheckAndStamp(ctx, "caller", 5)
	if err != nil {
		t.Fatalf("t=0: %v", err)
	}
	if got != 0 {
		t.Fatalf("t=0: expected 0, got %d", got)
	}

	now = base.Add(2 * time.Second)
	got, err = l.CheckAndStamp(ctx, "caller", 5)
	if err != nil {
		t.Fatalf("t=2: %v", err)
	}
	if got != 5 {
		t.Fatalf("t=2: expected full penalty 5, got %d", got)
	}

	now = base.Add(10 * time.Second)
	got, err = l.CheckAndStamp(ctx, "caller", 5)
	if err != nil {
		t.Fatalf("t=10: %v", err)
	}
	if got != 0 {
		t.Fatalf("t=10: expected 0, got %d", got)
	}
}

func TestRedisStampsRemainingInsideWindow(t *testing.T) {
	l, _ := newRedisStampsForTest(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	l.SetClock(func() time.Time { return now })

	if _, err := l.CheckAndStamp(ctx, "caller", 60); err != nil {
		t.Fatalf("first call: %v", err)
	}

	now = base.Add(10 * time.Second)
	got, err := l.CheckAndStamp(ctx, "caller", 60)
	if err != nil {
		t.Fatalf("t=10: %v", err)
	}
	if got != 50 {
		t.Fatalf("t=10: expected 50 remaining, got %d", got)
	}
}

func TestRedisStampsCorruptStampOverwritten(t *testing.T) {
	l, mr := newRedisStampsForTest(t)
	ctx := context.Background()

	if err := mr.Set("brl:caller", "not-a-timestamp"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := l.CheckAndStamp(ctx, "caller", 30)
	if err != nil {
		t.Fatalf("corrupt stamp: %v", err)
	}
	if got != 0 {
		t.Fatalf("corrupt stamp: expected allow, got %d", got)
	}
}

func TestRedisStampsBackendDown(t *testing.T) {
	l, mr := newRedisStampsForTest(t)
	mr.Close()

	_, err := l.CheckAndStamp(context.Background(), "caller", 30)
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
