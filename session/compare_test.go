package session

import (
	"testing"
	"time"
)

func compareParams(now time.Time) CompareParams {
	return CompareParams{
		Now:              now,
		LockoutThreshold: 5,
		Forgiveness:      15 * time.Minute,
		RenewalGrace:     3 * 24 * time.Hour,
		RenewalWindow:    7 * 24 * time.Hour,
		MaxIndex:         999999999,
	}
}

func newBasis(now time.Time) *Session {
	return &Session{
		Index:     0,
		Account:   "alice",
		UserID:    "u-alice",
		UserType:  1,
		Signature: "good-signature",
		Validity:  true,
		Expired:   now.Add(7 * 24 * time.Hour),
		Secret:    "renewal-secret",
	}
}

func claimFor(s *Session) *Session {
	return &Session{
		Index:     s.Index,
		Account:   s.Account,
		UserID:    s.UserID,
		Signature: s.Signature,
	}
}

func TestCompareSuccessResetsFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.FailureCount = 3
	basis.LastConnect = now.Add(-time.Minute)

	res := basis.Compare(claimFor(basis), compareParams(now))
	if res.Code != CodeSuccess {
		t.Fatalf("expected success, got %v", res.Code)
	}
	if res.Multiple {
		t.Fatal("unexpected multiple flag")
	}

	info := basis.Snapshot()
	if !info.OnlineStatus {
		t.Fatal("success must mark the record online")
	}
	if info.FailureCount != 0 {
		t.Fatalf("success must reset failures, got %d", info.FailureCount)
	}
	if !info.LastConnect.Equal(now) {
		t.Fatalf("lastConnect not refreshed: %v", info.LastConnect)
	}
}

func TestCompareDisabledShortCircuits(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.Validity = false
	basis.LastConnect = now.Add(-time.Hour)

	res := basis.Compare(claimFor(basis), compareParams(now))
	if res.Code != CodeDisabled {
		t.Fatalf("expected disabled, got %v", res.Code)
	}
	// Disabled stops before liveness is refreshed.
	if basis.Snapshot().LastConnect.Equal(now) {
		t.Fatal("disabled must not refresh lastConnect")
	}
}

func TestCompareIndexCeiling(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.Index = 1000000000

	res := basis.Compare(claimFor(basis), compareParams(now))
	if res.Code != CodeInvalidAuth {
		t.Fatalf("expected invalid auth, got %v", res.Code)
	}
	if basis.Snapshot().FailureCount != 0 {
		t.Fatal("ceiling rejection must not mutate the record")
	}
}

func TestCompareLockoutMonotonicity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)

	bad := claimFor(basis)
	bad.Signature = "forged"

	for attempt := 1; attempt <= 4; attempt++ {
		now = now.Add(time.Second)
		res := basis.Compare(bad, compareParams(now))
		if res.Code != CodeInvalidAuth {
			t.Fatalf("attempt %d: expected invalid auth, got %v", attempt, res.Code)
		}
		if got := basis.Snapshot().FailureCount; got != attempt {
			t.Fatalf("attempt %d: failureCount = %d", attempt, got)
		}
	}

	now = now.Add(time.Second)
	res := basis.Compare(bad, compareParams(now))
	if res.Code != CodeAccountBlocked {
		t.Fatalf("fifth mismatch: expected blocked, got %v", res.Code)
	}
}

func TestCompareForgivenessWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.FailureCount = 4
	basis.LastConnect = now.Add(-16 * time.Minute)

	bad := claimFor(basis)
	bad.Signature = "forged"

	// Past mismatches are forgotten before the comparison, so this mismatch
	// counts as the first, not the fifth.
	res := basis.Compare(bad, compareParams(now))
	if res.Code != CodeInvalidAuth {
		t.Fatalf("expected invalid auth, got %v", res.Code)
	}
	if got := basis.Snapshot().FailureCount; got != 1 {
		t.Fatalf("expected failureCount 1 after forgiveness, got %d", got)
	}
}

func TestCompareLockoutEscalationNeedsDeviceMove(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.MachineID = "machine-a"
	basis.FailureCount = 5
	basis.LastConnect = now.Add(-time.Minute)

	// Correct signature from a different machine while over the threshold is
	// treated as impersonation.
	moved := claimFor(basis)
	moved.MachineID = "machine-b"
	res := basis.Compare(moved, compareParams(now))
	if res.Code != CodeAccountBlocked {
		t.Fatalf("expected blocked on moved device, got %v", res.Code)
	}

	// Same machine with the correct signature recovers even over the
	// threshold: the escalation only fires on a device change.
	basis.FailureCount = 5
	same := claimFor(basis)
	same.MachineID = "machine-a"
	res = basis.Compare(same, compareParams(now.Add(time.Second)))
	if res.Code != CodeSuccess {
		t.Fatalf("expected success on same device, got %v", res.Code)
	}
	if basis.Snapshot().FailureCount != 0 {
		t.Fatal("recovery must reset failures")
	}
}

func TestCompareMultipleDeviceFlag(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.MachineID = "machine-a"
	basis.FailureCount = 2
	basis.LastConnect = now.Add(-time.Minute)

	moved := claimFor(basis)
	moved.MachineID = "machine-b"

	res := basis.Compare(moved, compareParams(now))
	if res.Code != CodeSuccess {
		t.Fatalf("expected success, got %v", res.Code)
	}
	if !res.Multiple {
		t.Fatal("expected multiple-device flag")
	}
}

func TestCompareAdoptsUnboundIdentity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)

	claim := claimFor(basis)
	claim.MachineID = "machine-a"
	claim.OpenID = "open-1"

	res := basis.Compare(claim, compareParams(now))
	if res.Code != CodeSuccess {
		t.Fatalf("expected success, got %v", res.Code)
	}
	if res.Multiple {
		t.Fatal("first binding is not a device move")
	}
	if basis.MachineID != "machine-a" || basis.OpenID != "open-1" {
		t.Fatalf("identity not adopted: %q %q", basis.MachineID, basis.OpenID)
	}
}

func TestCompareExpiryRenewalWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Within the grace band: a successful validation slides the expiry to
	// now + renewal window.
	basis := newBasis(now)
	basis.Expired = now.Add(2 * 24 * time.Hour)
	res := basis.Compare(claimFor(basis), compareParams(now))
	if res.Code != CodeSuccess {
		t.Fatalf("expected success, got %v", res.Code)
	}
	if want := now.Add(7 * 24 * time.Hour); !basis.Snapshot().Expired.Equal(want) {
		t.Fatalf("expiry not extended: got %v want %v", basis.Snapshot().Expired, want)
	}

	// Far from expiry: untouched.
	basis = newBasis(now)
	basis.Expired = now.Add(10 * 24 * time.Hour)
	res = basis.Compare(claimFor(basis), compareParams(now))
	if res.Code != CodeSuccess {
		t.Fatalf("expected success, got %v", res.Code)
	}
	if want := now.Add(10 * 24 * time.Hour); !basis.Snapshot().Expired.Equal(want) {
		t.Fatalf("expiry changed: got %v want %v", basis.Snapshot().Expired, want)
	}
}

func TestCompareExpiryNeverDecreases(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// A short renewal window must not pull a later expiry backwards.
	basis := newBasis(now)
	basis.Expired = now.Add(2 * time.Hour)

	p := compareParams(now)
	p.RenewalGrace = 3 * time.Hour
	p.RenewalWindow = time.Hour

	res := basis.Compare(claimFor(basis), p)
	if res.Code != CodeSuccess {
		t.Fatalf("expected success, got %v", res.Code)
	}
	if want := now.Add(2 * time.Hour); !basis.Snapshot().Expired.Equal(want) {
		t.Fatalf("expiry decreased: got %v want %v", basis.Snapshot().Expired, want)
	}
}

func TestCompareExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		mutate       func(basis, claim *Session, p *CompareParams)
		wantEligible bool
	}{
		{
			name: "past expiry",
			mutate: func(basis, _ *Session, _ *CompareParams) {
				basis.Expired = now.Add(-time.Minute)
			},
			wantEligible: true,
		},
		{
			name: "index mismatch after restart",
			mutate: func(_, claim *Session, _ *CompareParams) {
				claim.Index = 42
			},
			wantEligible: true,
		},
		{
			name: "device move with machine check",
			mutate: func(basis, claim *Session, p *CompareParams) {
				basis.MachineID = "machine-a"
				claim.MachineID = "machine-b"
				p.CheckMachineID = true
			},
			wantEligible: false,
		},
		{
			name: "channel move with open-id check",
			mutate: func(basis, claim *Session, p *CompareParams) {
				basis.OpenID = "open-1"
				claim.OpenID = "open-2"
				p.CheckOpenID = true
			},
			wantEligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basis := newBasis(now)
			claim := claimFor(basis)
			p := compareParams(now)
			tt.mutate(basis, claim, &p)

			res := basis.Compare(claim, p)
			if res.Code != CodeExpired {
				t.Fatalf("expected expired, got %v", res.Code)
			}
			if res.RenewalEligible != tt.wantEligible {
				t.Fatalf("renewal eligible = %v, want %v", res.RenewalEligible, tt.wantEligible)
			}
		})
	}
}

func TestCompareLoginModeSkipsExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.Expired = now.Add(-time.Hour)

	p := compareParams(now)
	p.Login = true

	res := basis.Compare(claimFor(basis), p)
	if res.Code != CodeSuccess {
		t.Fatalf("login mode: expected success on expired record, got %v", res.Code)
	}
}

func TestRedeem(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	basis := newBasis(now)
	basis.Expired = now.Add(-time.Hour)

	if basis.Redeem("wrong-secret", now, 24*time.Hour) {
		t.Fatal("wrong secret must not redeem")
	}
	if basis.Redeem("", now, 24*time.Hour) {
		t.Fatal("empty secret must not redeem")
	}

	if !basis.Redeem("renewal-secret", now, 24*time.Hour) {
		t.Fatal("matching secret must redeem")
	}
	info := basis.Snapshot()
	if !info.OnlineStatus {
		t.Fatal("redeem must mark the record online")
	}
	if want := now.Add(24 * time.Hour); !info.Expired.Equal(want) {
		t.Fatalf("redeem expiry: got %v want %v", info.Expired, want)
	}

	basis.mu.Lock()
	basis.Validity = false
	basis.mu.Unlock()
	if basis.Redeem("renewal-secret", now, 24*time.Hour) {
		t.Fatal("disabled record must not redeem")
	}
}
