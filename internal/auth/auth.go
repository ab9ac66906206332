// Package auth resolves the caller's identity. Tokens are verified upstream by
// the auth proxy, which forwards the result as trusted headers.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/davex-ai/SwiftBites/internal/domain"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

type Authenticator interface {
	Authenticate(r *http.Request) domain.Identity
}

// HeaderAuthenticator reads the proxy headers. Any role other than admin is
// treated as a regular user.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) domain.Identity {
	userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if userID == "" {
		return domain.Identity{}
	}

	role := domain.RoleUser
	if strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderUserRole)), string(domain.RoleAdmin)) {
		role = domain.RoleAdmin
	}
	return domain.Identity{UserID: userID, Role: role}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the anonymous identity when none was attached.
func FromContext(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}

// Middleware attaches the resolved identity to every request. Anonymous
// requests pass through; each operation decides whether it needs a user.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithIdentity(r.Context(), a.Authenticate(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
