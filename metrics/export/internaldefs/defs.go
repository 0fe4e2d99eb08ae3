package internaldefs

import (
	basisauth "github.com/basisauth/basisauth"
)

// CounterDef defines a public type used by basisauth APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   basisauth.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by basisauth APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   basisauth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: basisauth.MetricVerifySuccess, Name: "basisauth_verify_success_total", Help: "Claims accepted."},
	{ID: basisauth.MetricVerifyInvalidAuth, Name: "basisauth_verify_invalid_auth_total", Help: "Claims rejected for authentication failure."},
	{ID: basisauth.MetricVerifyDisabled, Name: "basisauth_verify_disabled_total", Help: "Claims rejected because the account is disabled."},
	{ID: basisauth.MetricVerifyBlocked, Name: "basisauth_verify_blocked_total", Help: "Claims rejected because the account is blocked."},
	{ID: basisauth.MetricVerifyExpired, Name: "basisauth_verify_expired_total", Help: "Claims rejected because the trust window lapsed."},
	{ID: basisauth.MetricVerifyForbidden, Name: "basisauth_verify_forbidden_total", Help: "Claims denied by the authorization oracle."},
	{ID: basisauth.MetricVerifyInvalidAction, Name: "basisauth_verify_invalid_action_total", Help: "Claims with a malformed action identifier."},
	{ID: basisauth.MetricVerifyMultiple, Name: "basisauth_verify_multiple_device_total", Help: "Accepted claims flagged as arriving from an additional device."},
	{ID: basisauth.MetricRuleSuccess, Name: "basisauth_rule_success_total", Help: "Rule credentials accepted."},
	{ID: basisauth.MetricRuleInvalid, Name: "basisauth_rule_invalid_total", Help: "Rule credentials rejected."},
	{ID: basisauth.MetricRuleThrottled, Name: "basisauth_rule_throttled_total", Help: "Rule checks blocked by the rate limiter."},
	{ID: basisauth.MetricRenewalIssued, Name: "basisauth_renewal_issued_total", Help: "Renewal keys offered with expired outcomes."},
	{ID: basisauth.MetricRenewalRedeemed, Name: "basisauth_renewal_redeemed_total", Help: "Renewal keys redeemed."},
	{ID: basisauth.MetricSessionOffline, Name: "basisauth_session_offline_total", Help: "Sessions marked offline."},
}

// HistogramDefs is an exported constant or variable used by the authentication engine.
var HistogramDefs = []HistogramDef{
	{ID: basisauth.MetricVerifyLatency, Name: "basisauth_verify_latency_seconds", Help: "Verify latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the authentication engine.
var HistogramBounds = []string{
	"0.00001",
	"0.00005",
	"0.0001",
	"0.0005",
	"0.001",
	"0.005",
	"0.025",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the authentication engine.
var HistogramBoundSuffix = []string{
	"0_00001",
	"0_00005",
	"0_0001",
	"0_0005",
	"0_001",
	"0_005",
	"0_025",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// 8-bucket shape the exporters render.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
