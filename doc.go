// Package basisauth is an embeddable session authentication and
// authorization engine for multi-tenant backends.
//
// The engine keeps an in-memory registry of authoritative session records
// ("Basis"), created lazily from a pluggable user store. Every request's
// client-presented claim is compared against its Basis: signature match,
// anti-brute-force lockout with a forgiveness window, sliding expiry renewal,
// and multiple-device detection. An optional authorization oracle answers
// per-action permission checks, and a stateless rule mode validates shared
// secrets under a per-caller rate limit.
//
// Construct an Engine with the fluent builder:
//
//	engine, err := basisauth.New().
//		WithUserStore(store).
//		WithAuthority(oracle).
//		Build()
//
// and validate claims with [Engine.Verify]. All authentication decisions are
// returned as structured [Outcome] values; errors are reserved for
// collaborator failures.
package basisauth
