package renewal

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrKeyInvalid is returned when a renewal key fails signature or claim
// validation.
var ErrKeyInvalid = errors.New("invalid renewal key")

// Claims binds a renewal key to the account it renews and the per-session
// secret current at issuance. A key is only honored while the session still
// holds the same secret, so recreating the session invalidates outstanding
// keys.
type Claims struct {
	Account string `json:"acct"`
	Secret  string `json:"sec"`
	jwt.RegisteredClaims
}

// Signer issues and parses HS256-signed renewal keys.
type Signer struct {
	key []byte
	ttl time.Duration
}

// NewSigner creates a Signer. The signing key must be at least 32 bytes;
// a non-positive ttl defaults to 15 minutes.
func NewSigner(key []byte, ttl time.Duration) (*Signer, error) {
	if len(key) < 32 {
		return nil, errors.New("renewal signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{key: key, ttl: ttl}, nil
}

// Issue signs a renewal key for the account and its current session secret.
func (s *Signer) Issue(account, secret string, now time.Time) (string, error) {
	claims := Claims{
		Account: account,
		Secret:  secret,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Parse validates a renewal key and returns its claims.
func (s *Signer) Parse(key string) (*Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(key, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrKeyInvalid
		}
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrKeyInvalid
	}
	if claims.Account == "" || claims.Secret == "" {
		return nil, ErrKeyInvalid
	}

	return &claims, nil
}
