package basisauth

import (
	"context"

	"github.com/basisauth/basisauth/internal"
)

// VerifyRule validates a caller-supplied credential against a named rule: a
// stateless shared-secret check with no per-account session state. The caller
// is throttled by network address (see [WithRemoteAddr]); a blocked caller
// receives TooFrequent with the remaining seconds before any comparison runs.
func (e *Engine) VerifyRule(ctx context.Context, rule, credential string) Outcome {
	if e == nil {
		return Outcome{Code: ResultInvalidAuth}
	}

	if remaining := e.ruleThrottle(ctx, rule); remaining > 0 {
		e.metricInc(MetricRuleThrottled)
		e.emitAudit(ctx, auditEventRuleThrottled, "rule check throttled", "", false, func() map[string]string {
			return map[string]string{"rule": rule}
		})
		return Outcome{Code: ResultTooFrequent, RetrySeconds: remaining}
	}

	if credential == "" || internal.HashString(rule) != credential {
		e.metricInc(MetricRuleInvalid)
		e.emitAudit(ctx, auditEventRuleRejected, "rule credential mismatch", "", false, func() map[string]string {
			return map[string]string{"rule": rule}
		})
		return Outcome{Code: ResultInvalidAuth}
	}

	e.metricInc(MetricRuleSuccess)
	e.emitAudit(ctx, auditEventRuleAccepted, "rule credential accepted", "", true, func() map[string]string {
		return map[string]string{"rule": rule}
	})
	return Outcome{Code: ResultSuccess}
}

// ruleThrottle returns the remaining block time in seconds for the caller,
// or 0 when the call is allowed. Throttling is best-effort: without a caller
// address there is no key to stamp, and a degraded Redis limiter falls back
// to allowing the call rather than failing it.
func (e *Engine) ruleThrottle(ctx context.Context, rule string) int {
	addr := remoteAddrFromContext(ctx)
	if addr == "" {
		return 0
	}

	key := addr + "|" + rule
	limitSeconds := int(e.config.RateLimit.RuleCooldown.Seconds())

	if e.redisLimiter != nil {
		remaining, err := e.redisLimiter.CheckAndStamp(ctx, key, limitSeconds)
		if err == nil {
			return remaining
		}
		e.emitAudit(ctx, auditEventLimiterDegraded, "redis limiter unavailable, allowing call", "", false, nil)
		return 0
	}

	if e.limiter == nil {
		return 0
	}
	return e.limiter.CheckAndStamp(key, limitSeconds)
}
