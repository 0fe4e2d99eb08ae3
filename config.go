package basisauth

import (
	"errors"
	"time"
)

// Config defines a public type used by basisauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session   SessionConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Renewal   RenewalConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes session lifetime and identity enforcement.
//
// StandardWindow is the expiry window granted to ordinary users at creation
// and on sliding renewal. AdminWindow is the shorter window for the
// administrative user category (type 0). RenewalGrace is how close to expiry
// a successful validation must be before the window slides forward.
type SessionConfig struct {
	StandardWindow time.Duration
	AdminWindow    time.Duration
	RenewalGrace   time.Duration

	// CheckMachineID treats a device change as expiry, forcing re-login.
	CheckMachineID bool
	// CheckOpenID treats a channel change as expiry, forcing re-login.
	CheckOpenID bool

	// MaxIndex is the sanity ceiling on claim cache indexes; claims above it
	// are rejected without touching the cache.
	MaxIndex int
}

// LockoutConfig tunes the anti-brute-force escalation.
type LockoutConfig struct {
	// Threshold is the consecutive-mismatch count at which a differing
	// machine id escalates to AccountBlocked.
	Threshold int
	// Forgiveness is the inactivity span after which past mismatches are
	// forgotten.
	Forgiveness time.Duration
}

// RateLimitConfig tunes the per-caller stamp limiter used by rule validation.
type RateLimitConfig struct {
	// RuleCooldown is the per-caller window between rule checks.
	RuleCooldown time.Duration
	// GraceSeconds is the boundary band just after a window nominally closes
	// in which a call is re-penalized at the full cooldown.
	GraceSeconds int
	// RedisPrefix namespaces limiter keys when a Redis client is supplied.
	RedisPrefix string
}

// RenewalConfig tunes renewal-key issuance for expired sessions.
//
// When SigningKey is empty, renewal keys degrade to the opaque per-session
// secret.
type RenewalConfig struct {
	SigningKey []byte
	KeyTTL     time.Duration
}

// AuditConfig defines a public type used by basisauth APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by basisauth APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			StandardWindow: 7 * 24 * time.Hour,
			AdminWindow:    24 * time.Hour,
			RenewalGrace:   3 * 24 * time.Hour,
			CheckMachineID: false,
			CheckOpenID:    false,
			MaxIndex:       999999999,
		},
		Lockout: LockoutConfig{
			Threshold:   5,
			Forgiveness: 15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RuleCooldown: 10 * time.Second,
			GraceSeconds: 3,
			RedisPrefix:  "brl",
		},
		Renewal: RenewalConfig{
			KeyTTL: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Renewal.SigningKey = cloneBytes(cfg.Renewal.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for internal consistency. It is called
// by [Builder.Build]; direct use is only needed when constructing a Config
// for later use.
func (c *Config) Validate() error {
	if c.Session.StandardWindow <= 0 {
		return errors.New("Session StandardWindow must be > 0")
	}
	if c.Session.AdminWindow <= 0 {
		return errors.New("Session AdminWindow must be > 0")
	}
	if c.Session.RenewalGrace <= 0 {
		return errors.New("Session RenewalGrace must be > 0")
	}
	if c.Session.RenewalGrace > c.Session.StandardWindow {
		return errors.New("Session RenewalGrace must not exceed StandardWindow")
	}
	if c.Session.MaxIndex <= 0 {
		return errors.New("Session MaxIndex must be > 0")
	}

	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}
	if c.Lockout.Forgiveness <= 0 {
		return errors.New("Lockout Forgiveness must be > 0")
	}

	if c.RateLimit.RuleCooldown <= 0 {
		return errors.New("RateLimit RuleCooldown must be > 0")
	}
	if c.RateLimit.GraceSeconds < 0 {
		return errors.New("RateLimit GraceSeconds must be >= 0")
	}
	if time.Duration(c.RateLimit.GraceSeconds)*time.Second >= c.RateLimit.RuleCooldown {
		return errors.New("RateLimit GraceSeconds must be shorter than RuleCooldown")
	}

	if len(c.Renewal.SigningKey) > 0 {
		if len(c.Renewal.SigningKey) < 32 {
			return errors.New("Renewal SigningKey must be at least 32 bytes")
		}
		if c.Renewal.KeyTTL <= 0 {
			return errors.New("Renewal KeyTTL must be > 0 when a signing key is set")
		}
	}

	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
