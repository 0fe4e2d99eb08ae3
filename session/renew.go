package session

import "time"

// CurrentSecret returns the record's renewal credential.
func (s *Session) CurrentSecret() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Secret
}

// Redeem validates a presented renewal credential against the record. On a
// match the trust window extends forward and the record is marked online, so
// the caller can continue without a full re-login. The credential itself is
// stable for the record's lifetime; recreating the session invalidates it.
func (s *Session) Redeem(secret string, now time.Time, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if secret == "" || s.Secret != secret {
		return false
	}
	if !s.Validity {
		return false
	}

	if next := now.Add(window); next.After(s.Expired) {
		s.Expired = next
	}
	s.OnlineStatus = true
	s.FailureCount = 0
	s.LastConnect = now

	return true
}
