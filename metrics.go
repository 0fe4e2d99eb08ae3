package basisauth

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by basisauth APIs.
type MetricID uint16

const (
	// MetricVerifySuccess is an exported constant or variable used by the authentication engine.
	MetricVerifySuccess MetricID = iota
	// MetricVerifyInvalidAuth is an exported constant or variable used by the authentication engine.
	MetricVerifyInvalidAuth
	// MetricVerifyDisabled is an exported constant or variable used by the authentication engine.
	MetricVerifyDisabled
	// MetricVerifyBlocked is an exported constant or variable used by the authentication engine.
	MetricVerifyBlocked
	// MetricVerifyExpired is an exported constant or variable used by the authentication engine.
	MetricVerifyExpired
	// MetricVerifyForbidden is an exported constant or variable used by the authentication engine.
	MetricVerifyForbidden
	// MetricVerifyInvalidAction is an exported constant or variable used by the authentication engine.
	MetricVerifyInvalidAction
	// MetricVerifyMultiple is an exported constant or variable used by the authentication engine.
	MetricVerifyMultiple
	// MetricRuleSuccess is an exported constant or variable used by the authentication engine.
	MetricRuleSuccess
	// MetricRuleInvalid is an exported constant or variable used by the authentication engine.
	MetricRuleInvalid
	// MetricRuleThrottled is an exported constant or variable used by the authentication engine.
	MetricRuleThrottled
	// MetricRenewalIssued is an exported constant or variable used by the authentication engine.
	MetricRenewalIssued
	// MetricRenewalRedeemed is an exported constant or variable used by the authentication engine.
	MetricRenewalRedeemed
	// MetricSessionOffline is an exported constant or variable used by the authentication engine.
	MetricSessionOffline
	// MetricVerifyLatency is an exported constant or variable used by the authentication engine.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the in-process, lock-free instrumentation for the verify hot
// path: per-outcome counters on padded cache lines plus a fixed-bucket
// latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by basisauth APIs.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] collector from the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counter collection is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether histogram collection is active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter for id. No-op when collection is disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample for the verify histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and histograms into maps for export.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	us := d.Microseconds()

	switch {
	case us <= 10:
		return 0
	case us <= 50:
		return 1
	case us <= 100:
		return 2
	case us <= 500:
		return 3
	case us <= 1000:
		return 4
	case us <= 5000:
		return 5
	case us <= 25000:
		return 6
	default:
		return 7
	}
}
