package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	basisauth "github.com/basisauth/basisauth"
	"github.com/basisauth/basisauth/internal"
	"github.com/redis/go-redis/v9"
)

type seededAccount struct {
	account string
	claim   *basisauth.Session
}

type memoryStore struct {
	users map[string]basisauth.UserRecord
}

func (s *memoryStore) GetUser(_ context.Context, account string) (*basisauth.UserRecord, error) {
	u, ok := s.users[strings.ToLower(account)]
	if !ok {
		return nil, nil
	}
	out := u
	return &out, nil
}

func main() {
	var (
		accounts    = flag.Int("accounts", 100000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (verify + rule)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := &memoryStore{users: make(map[string]basisauth.UserRecord, *accounts)}
	seeds := make([]seededAccount, *accounts)

	fmt.Printf("seeding %d accounts...\n", *accounts)
	startSeed := time.Now()
	for i := 0; i < *accounts; i++ {
		account := fmt.Sprintf("user-%d", i)
		password := internal.HashString(fmt.Sprintf("password-%d", i))
		store.users[account] = basisauth.UserRecord{
			ID:        fmt.Sprintf("u-%d", i),
			LoginName: account,
			Password:  password,
			Name:      account,
			DeptID:    fmt.Sprintf("d-%d", i%64),
			Type:      1,
			Validity:  true,
		}
		seeds[i] = seededAccount{
			account: account,
			claim: &basisauth.Session{
				Account:   account,
				Signature: internal.Signature(account, password),
			},
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	engine, err := basisauth.New().
		WithUserStore(store).
		WithRedis(client).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	// Warm the registry so the phases measure comparison, not creation.
	// Claims adopt the cache index assigned at creation, otherwise every
	// later verify reads as a registry rebuild.
	fmt.Println("warming session registry...")
	for i := range seeds {
		if _, err := engine.Verify(ctx, seeds[i].claim, basisauth.VerifyOptions{Login: true}); err != nil {
			fmt.Fprintf(os.Stderr, "warmup verify failed: %v\n", err)
			os.Exit(1)
		}
		info, ok := engine.Peek(seeds[i].account)
		if !ok {
			fmt.Fprintf(os.Stderr, "warmup left no session for %s\n", seeds[i].account)
			os.Exit(1)
		}
		seeds[i].claim.Index = info.Index
	}

	verifyStats := runVerifyPhase(ctx, engine, seeds, *ops, *concurrency)
	ruleStats := runRulePhase(ctx, engine, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("rule", ruleStats)
}

func runVerifyPhase(ctx context.Context, engine *basisauth.Engine, seeds []seededAccount, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(seeds))
				t0 := time.Now()
				out, err := engine.Verify(ctx, seeds[idx].claim, basisauth.VerifyOptions{})
				d := time.Since(t0)
				if err != nil || !out.OK() {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runRulePhase(ctx context.Context, engine *basisauth.Engine, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			// Distinct caller addresses keep workers out of each other's
			// throttle windows.
			callerCtx := basisauth.WithRemoteAddr(ctx, fmt.Sprintf("10.0.%d.%d", worker/256, worker%256))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				rule := fmt.Sprintf("rule-%d", i)
				t0 := time.Now()
				out := engine.VerifyRule(callerCtx, rule, internal.HashString(rule))
				d := time.Since(t0)
				if out.Code == basisauth.ResultTooFrequent {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
