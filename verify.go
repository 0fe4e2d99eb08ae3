package basisauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/basisauth/basisauth/renewal"
	"github.com/basisauth/basisauth/session"
	"github.com/google/uuid"
)

// Verify compares a client-presented claim against the authoritative Basis
// record and returns a structured outcome. The Basis is created lazily from
// the user store on first sight of an account; every subsequent call mutates
// its trust state (liveness, failure counter, expiry window).
//
// All authentication and authorization decisions are returned inside the
// Outcome, never as errors. The error return is reserved for collaborator
// failures: an unreachable user store or authorization oracle.
func (e *Engine) Verify(ctx context.Context, claim *Session, opts VerifyOptions) (Outcome, error) {
	if e == nil || e.cache == nil {
		return Outcome{}, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricVerifyLatency, time.Since(start)) }()
	}

	if claim == nil || claim.Account == "" {
		e.metricInc(MetricVerifyInvalidAuth)
		return Outcome{Code: ResultInvalidAuth}, nil
	}

	now := e.clock()

	// A claim index past the sanity ceiling never reaches the cache.
	if claim.Index > e.config.Session.MaxIndex {
		e.metricInc(MetricVerifyInvalidAuth)
		e.emitAudit(ctx, auditEventClaimRejected, "claim index beyond sanity ceiling", claim.Account, false, nil)
		return Outcome{Code: ResultInvalidAuth}, nil
	}

	basis, err := e.cache.Lookup(ctx, AccessToken{Index: claim.Index, Account: claim.Account})
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}
	if basis == nil {
		e.metricInc(MetricVerifyInvalidAuth)
		e.emitAudit(ctx, auditEventClaimRejected, "account unknown to user store", claim.Account, false, nil)
		return Outcome{Code: ResultInvalidAuth}, nil
	}

	res := basis.Compare(claim, session.CompareParams{
		Now:              now,
		Login:            opts.Login,
		LockoutThreshold: e.config.Lockout.Threshold,
		Forgiveness:      e.config.Lockout.Forgiveness,
		CheckMachineID:   e.config.Session.CheckMachineID,
		CheckOpenID:      e.config.Session.CheckOpenID,
		RenewalGrace:     e.config.Session.RenewalGrace,
		RenewalWindow:    e.config.Session.StandardWindow,
		MaxIndex:         e.config.Session.MaxIndex,
	})

	out := Outcome{Code: res.Code, Multiple: res.Multiple}

	if res.Code == session.CodeExpired && res.RenewalEligible {
		out.RenewalKey = e.renewalKey(basis, now)
		if out.RenewalKey != "" {
			e.metricInc(MetricRenewalIssued)
			e.emitAudit(ctx, auditEventRenewalIssued, "renewal key offered for expired session", basis.Account, false, nil)
		}
	}

	if out.OK() && opts.Action != "" && !bypassAction(claim, opts) {
		code, err := e.authorizeAction(ctx, basis, opts.Action)
		if err != nil {
			return Outcome{}, err
		}
		out.Code = code
	}

	e.countOutcome(out)
	e.emitOutcome(ctx, claim.Account, out)

	return out, nil
}

// bypassAction reports whether the caller-supplied identity already equals
// the session owner, making the oracle call redundant. Authentication has
// already run by the time this is consulted.
func bypassAction(claim *Session, opts VerifyOptions) bool {
	if opts.OwnerID != "" && claim.UserID == opts.OwnerID {
		return true
	}
	if opts.OwnerAccount != "" && strings.EqualFold(claim.Account, opts.OwnerAccount) {
		return true
	}
	return false
}

func (e *Engine) authorizeAction(ctx context.Context, basis *Session, action string) (ResultCode, error) {
	actionID, err := uuid.Parse(action)
	if err != nil {
		return ResultInvalidAction, nil
	}
	if e.authority == nil {
		return 0, ErrAuthorityRequired
	}

	// UserID and DeptID are assigned at creation and never reassigned, so
	// they are safe to read outside the record lock.
	ok, err := e.authority.Identify(ctx, basis.UserID, basis.DeptID, actionID.String())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAuthorityUnavailable, err)
	}
	if !ok {
		return ResultForbidden, nil
	}
	return ResultSuccess, nil
}

// renewalKey produces the credential handed back with an Expired outcome.
// With a signing key configured it is a short-lived signed token binding the
// account to its current session secret; otherwise it degrades to the opaque
// secret itself.
func (e *Engine) renewalKey(basis *Session, now time.Time) string {
	secret := basis.CurrentSecret()
	if e.signer == nil {
		return secret
	}
	key, err := e.signer.Issue(basis.Account, secret, now)
	if err != nil {
		return secret
	}
	return key
}

// ParseRenewalKey extracts the account bound into a signed renewal key so a
// boundary layer can route the redemption without trusting the caller. It
// requires a configured signing key; opaque renewal secrets carry no account
// and cannot be parsed.
func (e *Engine) ParseRenewalKey(key string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if e.signer == nil {
		return "", renewal.ErrKeyInvalid
	}
	claims, err := e.signer.Parse(key)
	if err != nil {
		return "", err
	}
	return claims.Account, nil
}

// Renew redeems a renewal key previously handed out with an Expired outcome.
// On success the session's trust window extends and the caller may resume
// without re-entering credentials.
func (e *Engine) Renew(ctx context.Context, account, key string) (Outcome, error) {
	if e == nil || e.cache == nil {
		return Outcome{}, ErrEngineNotReady
	}
	if account == "" || key == "" {
		return Outcome{Code: ResultInvalidAuth}, nil
	}

	basis := e.cache.Get(account)
	if basis == nil {
		e.emitAudit(ctx, auditEventRenewalRejected, "renewal for unknown account", account, false, nil)
		return Outcome{Code: ResultInvalidAuth}, nil
	}

	secret := key
	if e.signer != nil {
		claims, err := e.signer.Parse(key)
		if err != nil || !strings.EqualFold(claims.Account, account) {
			e.emitAudit(ctx, auditEventRenewalRejected, "renewal key failed validation", account, false, nil)
			return Outcome{Code: ResultInvalidAuth}, nil
		}
		secret = claims.Secret
	}

	window := e.config.Session.StandardWindow
	if basis.Snapshot().UserType == 0 {
		window = e.config.Session.AdminWindow
	}

	if !basis.Redeem(secret, e.clock(), window) {
		e.emitAudit(ctx, auditEventRenewalRejected, "renewal secret mismatch", account, false, nil)
		return Outcome{Code: ResultInvalidAuth}, nil
	}

	e.metricInc(MetricRenewalRedeemed)
	e.emitAudit(ctx, auditEventRenewalRedeemed, "session renewed", account, true, nil)
	return Outcome{Code: ResultSuccess}, nil
}

func (e *Engine) countOutcome(out Outcome) {
	switch out.Code {
	case ResultSuccess:
		e.metricInc(MetricVerifySuccess)
		if out.Multiple {
			e.metricInc(MetricVerifyMultiple)
		}
	case ResultInvalidAuth:
		e.metricInc(MetricVerifyInvalidAuth)
	case ResultDisabled:
		e.metricInc(MetricVerifyDisabled)
	case ResultAccountBlocked:
		e.metricInc(MetricVerifyBlocked)
	case ResultExpired:
		e.metricInc(MetricVerifyExpired)
	case ResultInvalidAction:
		e.metricInc(MetricVerifyInvalidAction)
	case ResultForbidden:
		e.metricInc(MetricVerifyForbidden)
	}
}
