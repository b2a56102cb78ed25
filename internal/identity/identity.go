package identity

import "context"

// AnonymousPrincipal is the principal assigned to unauthenticated callers.
const AnonymousPrincipal = "2vxsx-fae"

// Identity is the calling context supplied by the authentication boundary.
type Identity struct {
	Principal string
	Token     string
}

// Anonymous returns the identity used when no credentials are presented.
func Anonymous() Identity {
	return Identity{Principal: AnonymousPrincipal}
}

// Authenticated reports whether the identity belongs to a signed-in user.
func (i Identity) Authenticated() bool {
	return i.Principal != "" && i.Principal != AnonymousPrincipal
}

type identityKey struct{}

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity from context, if present.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Authenticated returns the signed-in identity from context. Anonymous or
// missing identities report false.
func Authenticated(ctx context.Context) (Identity, bool) {
	id, ok := FromContext(ctx)
	if !ok || !id.Authenticated() {
		return Identity{}, false
	}
	return id, true
}
