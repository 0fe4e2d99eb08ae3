// Package renewal issues signed renewal keys for expired sessions.
//
// When a session fails validation only because its expiry passed, the
// caller may be handed a short-lived renewal key. Presenting the key back
// proves possession of the previous session secret without replaying the
// full claim, and lets a client refresh without a complete re-login.
package renewal
