package basisauth

import (
	"errors"
	"time"

	internalaudit "github.com/basisauth/basisauth/internal/audit"
	"github.com/basisauth/basisauth/internal/rate"
	"github.com/basisauth/basisauth/renewal"
	"github.com/basisauth/basisauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine] from a configuration and its collaborators.
// A Builder is single-use: Build succeeds at most once.
type Builder struct {
	config Config
	redis  *redis.Client

	userStore UserStore
	authority Authority
	auditSink AuditSink

	built bool
}

// New creates a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserStore sets the persisted-user lookup collaborator. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithAuthority sets the authorization oracle. Optional; without it the
// engine refuses action checks but still authenticates.
func (b *Builder) WithAuthority(a Authority) *Builder {
	b.authority = a
	return b
}

// WithRedis switches the rule rate limiter to a Redis-backed stamp store so
// the throttle window is shared across instances. Optional; the default is
// the in-process stamp map.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events. Ignored unless audit
// is enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles verify-latency histogram collection.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	engine := &Engine{
		config: cfg,
		cache: session.NewCache(b.userStore, session.Options{
			StandardWindow: cfg.Session.StandardWindow,
			AdminWindow:    cfg.Session.AdminWindow,
		}),
		limiter:   rate.NewStampLimiter(cfg.RateLimit.GraceSeconds),
		authority: b.authority,
		metrics:   NewMetrics(cfg.Metrics),
		now:       time.Now,
	}

	if b.redis != nil {
		engine.redisLimiter = rate.NewRedisStamps(b.redis, cfg.RateLimit.RedisPrefix, cfg.RateLimit.GraceSeconds)
	}

	if len(cfg.Renewal.SigningKey) > 0 {
		signer, err := renewal.NewSigner(cloneBytes(cfg.Renewal.SigningKey), cfg.Renewal.KeyTTL)
		if err != nil {
			return nil, err
		}
		engine.signer = signer
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return engine, nil
}
