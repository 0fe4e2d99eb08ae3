package session

import "time"

// Code is the outcome vocabulary shared by the comparison engine, the rule
// validator, and the rate limiter. Exactly one terminal code is produced per
// validation; the multiple-device condition is a flag carried alongside
// CodeSuccess, not a code of its own.
type Code uint8

const (
	// CodeSuccess means the claim matched the Basis record.
	CodeSuccess Code = iota
	// CodeInvalidAuth means the claim failed authentication.
	CodeInvalidAuth
	// CodeDisabled means the underlying account is disabled.
	CodeDisabled
	// CodeAccountBlocked means consecutive mismatches reached the lockout
	// threshold.
	CodeAccountBlocked
	// CodeExpired means the trust window lapsed; re-authentication or a
	// renewal key is required.
	CodeExpired
	// CodeInvalidAction means the supplied action identifier was not a
	// well-formed GUID.
	CodeInvalidAction
	// CodeForbidden means authentication passed but the authorization
	// oracle denied the action.
	CodeForbidden
	// CodeTooFrequent means the caller is rate limited.
	CodeTooFrequent
)

// String implements fmt.Stringer.
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeInvalidAuth:
		return "invalid_auth"
	case CodeDisabled:
		return "disabled"
	case CodeAccountBlocked:
		return "account_blocked"
	case CodeExpired:
		return "expired"
	case CodeInvalidAction:
		return "invalid_action"
	case CodeForbidden:
		return "forbidden"
	case CodeTooFrequent:
		return "too_frequent"
	default:
		return "unknown"
	}
}

// CompareParams carries the policy knobs the comparison runs under. The
// engine fills it from its configuration; tests construct it directly.
type CompareParams struct {
	Now   time.Time
	Login bool // skip the expiry check (login-time validation)

	LockoutThreshold int
	Forgiveness      time.Duration

	CheckMachineID bool
	CheckOpenID    bool

	RenewalGrace  time.Duration
	RenewalWindow time.Duration

	MaxIndex int
}

// CompareResult is the authentication outcome of a single claim-vs-Basis
// comparison (validation steps up to the authorization gate, which the
// engine layers on top).
type CompareResult struct {
	Code     Code
	Multiple bool
	// RenewalEligible is set with CodeExpired when silent renewal is
	// permitted, i.e. device/channel identity enforcement is off.
	RenewalEligible bool
}

// Compare validates a client-presented claim against this Basis record and
// mutates the record's trust state accordingly. The whole comparison runs as
// one critical section on the record, so concurrent attempts for the same
// account serialize rather than interleave their counter updates.
func (s *Session) Compare(claim *Session, p CompareParams) CompareResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A record past the sanity ceiling indicates registry corruption;
	// reject without touching its state.
	if p.MaxIndex > 0 && s.Index > p.MaxIndex {
		return CompareResult{Code: CodeInvalidAuth}
	}

	if !s.Validity {
		return CompareResult{Code: CodeDisabled}
	}

	// Forgiveness window: past mismatches are forgotten after a period of
	// inactivity so a user who mistyped repeatedly is not locked forever.
	if s.FailureCount > 0 && p.Now.Sub(s.LastConnect) > p.Forgiveness {
		s.FailureCount = 0
	}

	// Every attempt refreshes liveness, valid or not.
	s.LastConnect = p.Now

	machineMoved := identityMoved(s.MachineID, claim.MachineID)

	if s.Signature != claim.Signature || (s.FailureCount >= p.LockoutThreshold && machineMoved) {
		s.FailureCount++
		if s.FailureCount >= p.LockoutThreshold {
			return CompareResult{Code: CodeAccountBlocked}
		}
		return CompareResult{Code: CodeInvalidAuth}
	}

	if !p.Login && s.expiredCheck(claim, p) {
		return CompareResult{
			Code:            CodeExpired,
			RenewalEligible: !p.CheckMachineID && !p.CheckOpenID,
		}
	}

	s.OnlineStatus = true
	s.FailureCount = 0

	// The cache does not own device identity; it adopts the first one a
	// valid claim presents so later moves become detectable.
	if s.MachineID == "" && claim.MachineID != "" {
		s.MachineID = claim.MachineID
	}
	if s.OpenID == "" && claim.OpenID != "" {
		s.OpenID = claim.OpenID
	}

	return CompareResult{
		Code:     CodeSuccess,
		Multiple: machineMoved,
	}
}

// expiredCheck reports whether the claim's trust window has lapsed, and as a
// side effect slides the expiry forward when the record is validated close
// to it. Must be called with the record lock held.
func (s *Session) expiredCheck(claim *Session, p CompareParams) bool {
	// Index mismatch means the registry was rebuilt (process restart):
	// continuity is gone and the claim must re-authenticate.
	if s.Index != claim.Index {
		return true
	}
	if s.Expired.Before(p.Now) {
		return true
	}
	if p.CheckMachineID && identityMoved(s.MachineID, claim.MachineID) {
		return true
	}
	if p.CheckOpenID && identityMoved(s.OpenID, claim.OpenID) {
		return true
	}

	if p.Now.After(s.Expired.Add(-p.RenewalGrace)) {
		// Expiry only ever extends; a short window never pulls it back.
		if next := p.Now.Add(p.RenewalWindow); next.After(s.Expired) {
			s.Expired = next
		}
	}

	return false
}

// identityMoved reports whether a bound identity differs from the one the
// claim presents. An unbound Basis identity never counts as a move.
func identityMoved(basis, claim string) bool {
	return basis != "" && claim != basis
}
