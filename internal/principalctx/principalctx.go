// Package principalctx carries the authenticated caller through request
// contexts. Feature services read the caller from here only; they never
// touch session state.
package principalctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
)

// Principal identifies the authenticated caller for ownership stamping
// and authorization checks.
type Principal struct {
	UserID snowflake.ID
	Role   profiledomain.Role
}

type principalKey struct{}

// WithPrincipal stores the caller in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the caller from context, if set.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// UserIDFromContext returns just the caller identifier.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	p, ok := FromContext(ctx)
	if !ok {
		return 0, false
	}
	return p.UserID, true
}
