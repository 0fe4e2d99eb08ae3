package basisauth

import (
	"context"
	"time"

	internalaudit "github.com/basisauth/basisauth/internal/audit"
	"github.com/basisauth/basisauth/internal/rate"
	"github.com/basisauth/basisauth/renewal"
	"github.com/basisauth/basisauth/session"
)

// Engine is the session authentication engine: it owns the in-memory Basis
// registry, the comparison policy, the rule rate limiter, and the audit and
// metrics pipelines. Construct it with [New] and [Builder.Build]; a built
// Engine is safe for concurrent use.
type Engine struct {
	config Config

	cache        *session.Cache
	limiter      *rate.StampLimiter
	redisLimiter *rate.RedisStamps
	signer       *renewal.Signer
	authority    Authority
	audit        *internalaudit.Dispatcher
	metrics      *Metrics

	now func() time.Time
}

// Close flushes and stops the audit pipeline. The Engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the current counters and histograms for export.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

/*
====================================
SESSION MANAGEMENT
====================================
*/

// Peek returns a read-only snapshot of the cached session for an account, or
// false when no session exists. It never creates a session.
func (e *Engine) Peek(account string) (SessionInfo, bool) {
	if e == nil || e.cache == nil {
		return SessionInfo{}, false
	}
	basis := e.cache.Get(account)
	if basis == nil {
		return SessionInfo{}, false
	}
	return basis.Snapshot(), true
}

// Offline marks the account's session as not online. No-op when the account
// has no cached session.
func (e *Engine) Offline(account string) {
	if e == nil || e.cache == nil {
		return
	}
	e.cache.Offline(account)
	e.metricInc(MetricSessionOffline)
	e.emitAudit(context.Background(), auditEventSessionOffline, "session marked offline", account, true, nil)
}

// SetValidity enables or disables the account's cached session. A disabled
// session rejects every claim with Disabled until re-enabled.
func (e *Engine) SetValidity(account string, validity bool) {
	if e == nil || e.cache == nil {
		return
	}
	e.cache.SetValidity(account, validity)
	e.emitAudit(context.Background(), auditEventValidityChanged, "session validity changed", account, true, func() map[string]string {
		if validity {
			return map[string]string{"validity": "true"}
		}
		return map[string]string{"validity": "false"}
	})
}

// UpdateProfile refreshes the profile fields of the account's cached session
// from an updated user record. Identity and trust-state fields are untouched.
func (e *Engine) UpdateProfile(user UserRecord) {
	if e == nil || e.cache == nil {
		return
	}
	e.cache.UpdateProfile(user)
	e.emitAudit(context.Background(), auditEventProfileUpdated, "session profile refreshed", user.LoginName, true, nil)
}

// OnlineUsers returns snapshots of every session of the given user category
// currently marked online.
func (e *Engine) OnlineUsers(userType int) []SessionInfo {
	if e == nil || e.cache == nil {
		return nil
	}
	return e.cache.OnlineUsers(userType)
}

// SessionCount returns the number of records in the registry.
func (e *Engine) SessionCount() int {
	if e == nil || e.cache == nil {
		return 0
	}
	return e.cache.Len()
}
