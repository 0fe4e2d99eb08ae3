// Package session holds the in-memory session registry and the comparison
// engine that validates client-presented claims against it.
//
// # Model
//
// A [Session] plays two roles: decoded from a request it is a claim; held by
// the [Cache] it is the Basis, the authoritative record for an account. The
// cache creates a Basis lazily on first sight of an account, pulling the
// profile from the external [UserStore], and keeps it for the process
// lifetime. Records are never deleted, only marked offline or invalid.
//
// # Concurrency
//
// The find-or-create path is serialized by a creation guard so at most one
// record exists per account even under racing first-time lookups. Each
// record additionally carries its own lock; [Session.Compare] runs the full
// claim comparison as one critical section on the record, so concurrent
// validation attempts for the same account serialize their counter and
// expiry updates.
package session
