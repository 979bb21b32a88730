package auth

import (
	"context"
	"slices"
)

// AuthorityUser is the single capability granted to every authenticated caller.
const AuthorityUser = "ROLE_USER"

// Principal is the authenticated caller of one request.
type Principal struct {
	User        *User
	Authorities []string
}

// NewPrincipal projects u into a Principal holding AuthorityUser.
func NewPrincipal(u *User) *Principal {
	return &Principal{
		User:        u,
		Authorities: []string{AuthorityUser},
	}
}

// Subject returns the credential subject (the user's email).
func (p *Principal) Subject() string {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Email
}

// UserID returns the id of the authenticated user, or 0 for a nil principal.
func (p *Principal) UserID() int64 {
	if p == nil || p.User == nil {
		return 0
	}
	return p.User.ID
}

// HasAuthority reports whether the principal was granted authority.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Authorities, authority)
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p. The binding lives exactly
// as long as the request context it is attached to.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal bound to ctx. ok is false for
// anonymous requests.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
