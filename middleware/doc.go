// Package middleware exposes HTTP adapters for the basisauth Engine: the
// authorization-header codec and guard middlewares for claim and rule
// validation.
//
// # Boundary contract
//
// The authorization header carries a base64-encoded, JSON-serialized payload:
// either a full session claim or an access-token lookup hint. A missing
// header is rejected with 401 before any validation runs; a malformed payload
// is surfaced as a generic extraction failure.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT make
// authentication or authorization decisions itself — those are delegated to
// [basisauth.Engine.Verify] and [basisauth.Engine.VerifyRule].
package middleware
