package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashString returns the lowercase hex SHA-256 digest of s. It is the single
// digest primitive behind account signatures, rule hashes, and session
// secrets, so all of them stay comparable as plain strings.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Signature derives the account signature binding a login name to its
// current credential hash. The login name is uppercased first so signature
// comparison inherits the account's case-insensitivity.
func Signature(loginName, password string) string {
	return HashString(strings.ToUpper(loginName) + password)
}
