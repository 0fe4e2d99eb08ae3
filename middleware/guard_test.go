package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	basisauth "github.com/basisauth/basisauth"
)

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type staticStore struct{}

func (staticStore) GetUser(_ context.Context, account string) (*basisauth.UserRecord, error) {
	if !strings.EqualFold(account, "alice") {
		return nil, nil
	}
	return &basisauth.UserRecord{
		ID:        "u-alice",
		LoginName: "alice",
		Password:  "pw-hash",
		Name:      "Alice",
		Type:      1,
		Validity:  true,
	}, nil
}

func newGuardEngine(t *testing.T) *basisauth.Engine {
	t.Helper()
	e, err := basisauth.New().WithUserStore(staticStore{}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func aliceClaim() *basisauth.Session {
	return &basisauth.Session{
		Account:   "alice",
		Signature: hashString("ALICE" + "pw-hash"),
	}
}

func okHandler(t *testing.T, sawOutcome *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, ok := OutcomeFromContext(r.Context())
		if ok && out.OK() {
			*sawOutcome = true
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestDecodeClaim(t *testing.T) {
	header, err := EncodeClaim(aliceClaim())
	if err != nil {
		t.Fatalf("EncodeClaim: %v", err)
	}

	claim, err := DecodeClaim(header)
	if err != nil {
		t.Fatalf("DecodeClaim: %v", err)
	}
	if claim.Account != "alice" {
		t.Fatalf("account = %q", claim.Account)
	}

	if _, err := DecodeClaim(""); !errors.Is(err, basisauth.ErrMissingAuthorization) {
		t.Fatalf("empty header: %v", err)
	}
	if _, err := DecodeClaim("!!not-base64!!"); !errors.Is(err, basisauth.ErrMalformedAuthorization) {
		t.Fatalf("bad base64: %v", err)
	}
	if _, err := DecodeClaim("bm90LWpzb24="); !errors.Is(err, basisauth.ErrMalformedAuthorization) {
		t.Fatalf("bad json: %v", err)
	}
}

func TestDecodeToken(t *testing.T) {
	header, err := EncodeToken(basisauth.AccessToken{Index: 3, Account: "alice"})
	if err != nil {
		t.Fatalf("EncodeToken: %v", err)
	}
	tok, err := DecodeToken(header)
	if err != nil {
		t.Fatalf("DecodeToken: %v", err)
	}
	if tok.Index != 3 || tok.Account != "alice" {
		t.Fatalf("token = %+v", tok)
	}
}

func TestGuardAcceptsValidClaim(t *testing.T) {
	engine := newGuardEngine(t)

	sawOutcome := false
	srv := Guard(engine, basisauth.VerifyOptions{Login: true})(okHandler(t, &sawOutcome))

	header, err := EncodeClaim(aliceClaim())
	if err != nil {
		t.Fatalf("EncodeClaim: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %q", rec.Code, rec.Body.String())
	}
	if !sawOutcome {
		t.Fatal("handler did not see the outcome on the context")
	}
}

func TestGuardRejectsMissingAndMalformedHeaders(t *testing.T) {
	engine := newGuardEngine(t)
	srv := Guard(engine, basisauth.VerifyOptions{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached without authorization")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "!!garbage!!")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed header: status = %d", rec.Code)
	}
}

func TestGuardRejectsBadSignature(t *testing.T) {
	engine := newGuardEngine(t)
	srv := Guard(engine, basisauth.VerifyOptions{Login: true})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler reached with a bad signature")
	}))

	claim := aliceClaim()
	claim.Signature = "forged"
	header, err := EncodeClaim(claim)
	if err != nil {
		t.Fatalf("EncodeClaim: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	var body outcomeBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not an outcome: %v", err)
	}
	if body.Code != "invalid_auth" {
		t.Fatalf("body code = %q", body.Code)
	}
}

func TestGuardForbiddenUses403(t *testing.T) {
	if rejectionStatus(basisauth.ResultForbidden) != http.StatusForbidden {
		t.Fatal("forbidden must map to 403")
	}
	if rejectionStatus(basisauth.ResultInvalidAction) != http.StatusForbidden {
		t.Fatal("invalid action must map to 403")
	}
	if rejectionStatus(basisauth.ResultExpired) != http.StatusUnauthorized {
		t.Fatal("expired must map to 401")
	}
}

func TestRuleGuard(t *testing.T) {
	engine := newGuardEngine(t)

	sawOutcome := false
	srv := RuleGuard(engine, "daily-report")(okHandler(t, &sawOutcome))

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	req.RemoteAddr = "10.0.0.1:50000"
	req.Header.Set("Authorization", hashString("daily-report"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("first call: status = %d", rec.Code)
	}
	if !sawOutcome {
		t.Fatal("handler did not see the outcome on the context")
	}

	// An immediate retry from the same address is throttled.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("retry: status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("throttled response missing Retry-After")
	}

	// A different caller with a bad credential gets 401.
	req = httptest.NewRequest(http.MethodGet, "/report", nil)
	req.RemoteAddr = "10.0.0.2:50000"
	req.Header.Set("Authorization", "wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credential: status = %d", rec.Code)
	}

	// A missing credential never reaches the engine.
	req.Header.Del("Authorization")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing credential: status = %d", rec.Code)
	}
}
