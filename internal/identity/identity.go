// Package identity defines the per-request actor descriptor produced by the
// external authentication service. The core trusts it as given and threads it
// through every service call as an explicit parameter.
package identity

import (
	"context"

	membershipdomain "reliefbase/backend/internal/membership/domain"
)

// Actor identifies who is performing a request: the authenticated user, the
// organization the session is scoped to, and the membership joining the two.
type Actor struct {
	UserID       int64
	OrgID        int64
	MembershipID int64
	Role         membershipdomain.Role
}

type contextKey struct{ name string }

var (
	actorKey    = contextKey{"actor"}
	clientIPKey = contextKey{"client_ip"}
)

// WithActor returns a context carrying the actor. Set once by the identity
// middleware after token verification.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom returns the actor from ctx and true if set; otherwise a zero
// Actor and false.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// WithClientIP returns a context carrying the caller's resolved client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFrom returns the client IP from ctx, or "" if not set.
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
