// Package rate throttles repeat calls per caller key (normally the remote
// network address).
//
// The default [StampLimiter] keeps one last-seen timestamp per key in
// process memory. [RedisStamps] provides the same contract on a shared
// Redis instance for multi-process deployments. Both are best-effort:
// concurrent requests from one caller within the same instant may race, and
// neither limiter ever fails a request on its own — they always produce a
// remaining-seconds value.
package rate
