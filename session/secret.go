package session

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/basisauth/basisauth/internal"
)

// NewSecret derives a one-time opaque secret from the account signature, a
// fresh random identifier, and the current timestamp. Each call produces a
// distinct value; it is handed to the caller as a renewal credential and is
// not reversible.
func NewSecret(signature string) string {
	return internal.HashString(uuid.NewString() + signature + strconv.FormatInt(time.Now().UnixNano(), 10))
}

// NewStamp returns the per-session nonce assigned to administrative
// accounts at creation, as a compact 32-character hex string.
func NewStamp() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
