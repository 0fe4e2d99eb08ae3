package basisauth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/basisauth/basisauth/internal"
	"github.com/redis/go-redis/v9"
)

func TestBuilderRequiresUserStore(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected error without a user store")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	b := New().WithUserStore(testStore())
	e, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer e.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second Build")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Renewal.SigningKey = []byte("short")

	if _, err := New().WithConfig(cfg).WithUserStore(testStore()).Build(); err == nil {
		t.Fatal("expected error for short signing key")
	}
}

func TestBuilderRedisThrottle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e, err := New().WithUserStore(testStore()).WithRedis(client).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(e.Close)

	ctx := WithRemoteAddr(context.Background(), "10.0.0.1")
	cred := internal.HashString("daily-report")

	if out := e.VerifyRule(ctx, "daily-report", cred); out.Code != ResultSuccess {
		t.Fatalf("first call: got %v", out.Code)
	}

	out := e.VerifyRule(ctx, "daily-report", cred)
	if out.Code != ResultTooFrequent {
		t.Fatalf("second call: got %v", out.Code)
	}
	if out.RetrySeconds <= 0 {
		t.Fatalf("retry seconds = %d", out.RetrySeconds)
	}

	// A degraded backend must not block callers.
	mr.Close()
	if out := e.VerifyRule(ctx, "daily-report", cred); out.Code != ResultSuccess {
		t.Fatalf("degraded backend: got %v", out.Code)
	}
}
