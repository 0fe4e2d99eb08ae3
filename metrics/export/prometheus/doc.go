// Package prometheus provides Prometheus collectors for basisauth metrics.
//
// [NewPrometheusExporter] accepts a [basisauth.Engine] and exposes an [http.Handler]
// that renders all basisauth counters and histograms in Prometheus text exposition
// format. Counter names are prefixed basisauth_*_total; the single histogram is
// basisauth_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
