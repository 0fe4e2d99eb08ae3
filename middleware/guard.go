package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	basisauth "github.com/basisauth/basisauth"
)

type outcomeContextKey struct{}

// OutcomeFromContext returns the validation outcome a [Guard] stored on the
// request context.
func OutcomeFromContext(ctx context.Context) (basisauth.Outcome, bool) {
	out, ok := ctx.Value(outcomeContextKey{}).(basisauth.Outcome)
	return out, ok
}

// Guard returns middleware that decodes the authorization header into a
// session claim, validates it with [basisauth.Engine.Verify], and stores the
// outcome on the request context. Rejections carry the encoded outcome in
// the response body: 401 for authentication failures and expiry, 403 for
// authorization failures.
func Guard(engine *basisauth.Engine, opts basisauth.VerifyOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeStatus(w, http.StatusUnauthorized)
				return
			}

			claim, err := DecodeClaim(r.Header.Get("Authorization"))
			if err != nil {
				writeStatus(w, http.StatusUnauthorized)
				return
			}

			ctx := withCallerAddr(r)
			out, err := engine.Verify(ctx, claim, opts)
			if err != nil {
				writeStatus(w, http.StatusInternalServerError)
				return
			}
			if !out.OK() {
				writeOutcome(w, rejectionStatus(out.Code), out)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, outcomeContextKey{}, out)))
		})
	}
}

// RuleGuard returns middleware that validates the authorization header as a
// rule credential via [basisauth.Engine.VerifyRule]. Throttled callers get
// 429 with a Retry-After header.
func RuleGuard(engine *basisauth.Engine, rule string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeStatus(w, http.StatusUnauthorized)
				return
			}

			credential := r.Header.Get("Authorization")
			if credential == "" {
				writeStatus(w, http.StatusUnauthorized)
				return
			}

			ctx := withCallerAddr(r)
			out := engine.VerifyRule(ctx, rule, credential)
			switch {
			case out.OK():
				next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, outcomeContextKey{}, out)))
			case out.Code == basisauth.ResultTooFrequent:
				w.Header().Set("Retry-After", strconv.Itoa(out.RetrySeconds))
				writeOutcome(w, http.StatusTooManyRequests, out)
			default:
				writeOutcome(w, http.StatusUnauthorized, out)
			}
		})
	}
}

func withCallerAddr(r *http.Request) context.Context {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return basisauth.WithRemoteAddr(r.Context(), addr)
}

func rejectionStatus(code basisauth.ResultCode) int {
	switch code {
	case basisauth.ResultForbidden, basisauth.ResultInvalidAction:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

type outcomeBody struct {
	Code       string `json:"code"`
	Multiple   bool   `json:"multiple,omitempty"`
	RenewalKey string `json:"renewalKey,omitempty"`
	Retry      int    `json:"retrySeconds,omitempty"`
}

func writeOutcome(w http.ResponseWriter, status int, out basisauth.Outcome) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(outcomeBody{
		Code:       out.Code.String(),
		Multiple:   out.Multiple,
		RenewalKey: out.RenewalKey,
		Retry:      out.RetrySeconds,
	})
}

func writeStatus(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}
