package basisauth

import (
	"context"
	"time"
)

const (
	auditEventClaimAccepted   = "claim_accepted"
	auditEventClaimRejected   = "claim_rejected"
	auditEventClaimExpired    = "claim_expired"
	auditEventAccountBlocked  = "account_blocked"
	auditEventAccountDisabled = "account_disabled"
	auditEventActionForbidden = "action_forbidden"
	auditEventActionMalformed = "action_malformed"
	auditEventMultipleDevices = "multiple_devices"
	auditEventRuleAccepted    = "rule_accepted"
	auditEventRuleRejected    = "rule_rejected"
	auditEventRuleThrottled   = "rule_throttled"
	auditEventRenewalIssued   = "renewal_issued"
	auditEventRenewalRedeemed = "renewal_redeemed"
	auditEventRenewalRejected = "renewal_rejected"
	auditEventSessionOffline  = "session_offline"
	auditEventValidityChanged = "validity_changed"
	auditEventProfileUpdated  = "profile_updated"
	auditEventLimiterDegraded = "limiter_degraded"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	code string,
	message string,
	account string,
	success bool,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if addr := remoteAddrFromContext(ctx); addr != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["remote_addr"] = addr
	}

	e.audit.Emit(ctx, AuditEvent{
		Timestamp: time.Now().UTC(),
		Code:      code,
		Message:   message,
		Account:   account,
		Success:   success,
		Metadata:  metadata,
	})
}

func (e *Engine) emitOutcome(ctx context.Context, account string, out Outcome) {
	switch out.Code {
	case ResultSuccess:
		if out.Multiple {
			e.emitAudit(ctx, auditEventMultipleDevices, "claim accepted from additional device", account, true, nil)
			return
		}
		e.emitAudit(ctx, auditEventClaimAccepted, "claim accepted", account, true, nil)
	case ResultInvalidAuth:
		e.emitAudit(ctx, auditEventClaimRejected, "claim signature mismatch", account, false, nil)
	case ResultDisabled:
		e.emitAudit(ctx, auditEventAccountDisabled, "account disabled", account, false, nil)
	case ResultAccountBlocked:
		e.emitAudit(ctx, auditEventAccountBlocked, "account blocked after repeated mismatches", account, false, nil)
	case ResultExpired:
		e.emitAudit(ctx, auditEventClaimExpired, "session expired", account, false, func() map[string]string {
			if out.RenewalKey == "" {
				return nil
			}
			return map[string]string{"renewal": "offered"}
		})
	case ResultInvalidAction:
		e.emitAudit(ctx, auditEventActionMalformed, "malformed action identifier", account, false, nil)
	case ResultForbidden:
		e.emitAudit(ctx, auditEventActionForbidden, "action denied by authorization oracle", account, false, nil)
	}
}
