package profile

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

type profileContextKey struct{}

// ContextWithProfile stores the resolved profile in context.
func ContextWithProfile(ctx context.Context, p Profile) context.Context {
	return context.WithValue(ctx, profileContextKey{}, p)
}

// FromContext extracts the resolved profile from context.
func FromContext(ctx context.Context) (Profile, bool) {
	p, ok := ctx.Value(profileContextKey{}).(Profile)
	return p, ok
}

// Middleware resolves the session user to a profile per request and gates
// routes by role.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Resolve attaches the current profile to the request context. Requests
// without an authenticated session pass through untouched; handlers decide
// whether anonymous access is acceptable.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || strings.TrimSpace(sess.User()) == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(strings.TrimSpace(sess.User()), 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("parse session user id", slog.String("value", sess.User()))
			}
			next.ServeHTTP(w, r)
			return
		}
		p := m.Service.Resolve(r.Context(), id, sess.Get("email"))
		next.ServeHTTP(w, r.WithContext(ContextWithProfile(r.Context(), p)))
	})
}

// RequireAuthenticated rejects requests without a resolved profile.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManager rejects requests whose profile lacks the MANAGER role.
func (m Middleware) RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if !p.IsManager() {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
