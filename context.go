package basisauth

import "context"

type remoteAddrContextKey struct{}

// WithRemoteAddr attaches the caller's network address to ctx. The Engine
// uses it as the rate-limiter key for rule validation and records it in
// audit events.
func WithRemoteAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, remoteAddrContextKey{}, addr)
}

func remoteAddrFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if addr, ok := ctx.Value(remoteAddrContextKey{}).(string); ok {
		return addr
	}
	return ""
}
