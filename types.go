package basisauth

import (
	"context"
	"io"

	internalaudit "github.com/basisauth/basisauth/internal/audit"
	"github.com/basisauth/basisauth/session"
)

// Session is the cached, authoritative record for an account ("Basis" when
// referenced as ground truth, "claim" when presented by a caller).
type Session = session.Session

// AccessToken is the lightweight lookup hint carried by cache-accelerated
// calls. It is never authoritative; the index is re-validated by account.
type AccessToken = session.AccessToken

// SessionInfo is a copy-safe snapshot of a cached session.
type SessionInfo = session.Info

// UserRecord is the account record returned by the [UserStore] collaborator.
type UserRecord = session.UserRecord

// UserStore is the persisted-user lookup collaborator. It is consulted once
// per account, when a session is created on first sight.
type UserStore = session.UserStore

// ResultCode enumerates the terminal outcomes of claim and rule validation.
type ResultCode = session.Code

const (
	// ResultSuccess is an exported constant or variable used by the authentication engine.
	ResultSuccess = session.CodeSuccess
	// ResultInvalidAuth is an exported constant or variable used by the authentication engine.
	ResultInvalidAuth = session.CodeInvalidAuth
	// ResultDisabled is an exported constant or variable used by the authentication engine.
	ResultDisabled = session.CodeDisabled
	// ResultAccountBlocked is an exported constant or variable used by the authentication engine.
	ResultAccountBlocked = session.CodeAccountBlocked
	// ResultExpired is an exported constant or variable used by the authentication engine.
	ResultExpired = session.CodeExpired
	// ResultInvalidAction is an exported constant or variable used by the authentication engine.
	ResultInvalidAction = session.CodeInvalidAction
	// ResultForbidden is an exported constant or variable used by the authentication engine.
	ResultForbidden = session.CodeForbidden
	// ResultTooFrequent is an exported constant or variable used by the authentication engine.
	ResultTooFrequent = session.CodeTooFrequent
)

// Outcome is the structured result of a validation call. Exactly one terminal
// Code is produced per call; Multiple augments Success rather than replacing
// it.
type Outcome struct {
	Code ResultCode

	// Multiple is set alongside Success when the account is active from more
	// than one device.
	Multiple bool

	// RenewalKey accompanies Expired when silent re-authentication is
	// permitted. Empty when device or channel identity checks force a full
	// re-login.
	RenewalKey string

	// RetrySeconds accompanies TooFrequent with the remaining block time.
	RetrySeconds int
}

// OK reports whether the outcome is a plain or multiple-device success.
func (o Outcome) OK() bool {
	return o.Code == ResultSuccess
}

// VerifyOptions selects the validation mode for [Engine.Verify].
//
// Action, when non-empty, requests an authorization check against the oracle
// after authentication passes. Login suppresses the expiry check so a fresh
// login can revive an expired session. OwnerID and OwnerAccount suppress the
// action check when the caller-supplied identity already equals the session
// owner; authentication always runs.
type VerifyOptions struct {
	Action       string
	Login        bool
	OwnerID      string
	OwnerAccount string
}

// Authority is the external authorization oracle: can user U in department D
// perform action A.
type Authority interface {
	Identify(ctx context.Context, userID, deptID, actionID string) (bool, error)
}

// AuditEvent defines a public type used by basisauth APIs.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events. Emission is fire-and-forget; a slow or
// failing sink never blocks validation.
type AuditSink = internalaudit.Sink

// NoOpSink discards all audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events on a channel for test consumption.
type ChannelSink = internalaudit.ChannelSink

// NewChannelSink creates a [ChannelSink] with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// JSONWriterSink writes one JSON line per audit event.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewJSONWriterSink creates a [JSONWriterSink] over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
