package shared

import "context"

type sessionKey struct{}

// ContextWithSession attaches the request session. The session middleware
// sets it exactly once per request.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session the middleware attached, or nil for
// requests that bypassed it (health checks, metrics).
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}
