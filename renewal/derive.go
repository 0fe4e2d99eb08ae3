package renewal

import (
	"errors"

	"golang.org/x/crypto/argon2"
)

const (
	deriveTime        uint32 = 3
	deriveMemoryKB    uint32 = 64 * 1024
	deriveParallelism uint8  = 2
	deriveKeyLength   uint32 = 32

	minPassphraseBytes = 10
	minSaltBytes       = 16
)

// DeriveSigningKey stretches an operator passphrase into a 32-byte HS256
// signing key using argon2id. The salt must be stable across restarts and
// instances, otherwise outstanding renewal keys stop validating; a random
// per-process salt defeats the purpose.
//
// Passphrase bytes are used exactly as provided (no Unicode normalization).
func DeriveSigningKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) < minPassphraseBytes {
		return nil, errors.New("passphrase must be at least 10 bytes")
	}
	if len(salt) < minSaltBytes {
		return nil, errors.New("salt must be at least 16 bytes")
	}

	return argon2.IDKey(
		passphrase,
		salt,
		deriveTime,
		deriveMemoryKB,
		deriveParallelism,
		deriveKeyLength,
	), nil
}
