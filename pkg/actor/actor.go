// Package actor carries the authenticated principal of a request.
//
// The principal is placed in the request context by the session or bearer token
// middleware and lives only as long as that request. Nothing is stored server side.
package actor

import (
	"context"
	"fmt"
)

// Principal is the user acting on a request
type Principal struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// String returns a string representation of the principal for logging
func (p *Principal) String() string {
	if p == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s (%s)", p.Username, p.Role)
}

type contextKey string

const principalContextKey contextKey = "principal"

// FromContext retrieves the Principal from the context.
// Returns nil for unauthenticated requests.
func FromContext(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}
	p, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok {
		return nil
	}
	return p
}

// WithPrincipal returns a new context with the Principal attached.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey, p)
}

// Username returns the acting username or "" when the request is anonymous
func Username(ctx context.Context) string {
	if p := FromContext(ctx); p != nil {
		return p.Username
	}
	return ""
}
