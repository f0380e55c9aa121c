package auth

import (
	"context"
	"slices"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Roles read from the role claim. Tokens without one are treated as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the verified shopper or operator behind a request.
type Identity struct {
	UID   string
	Email string
	Name  string
	Roles []string

	admin bool
	token *firebaseauth.Token
}

// Token returns the decoded ID token the identity was built from.
func (i *Identity) Token() *firebaseauth.Token {
	if i == nil {
		return nil
	}
	return i.token
}

func (i *Identity) HasRole(role string) bool {
	if i == nil || role == "" {
		return false
	}
	return slices.ContainsFunc(i.Roles, func(r string) bool { return strings.EqualFold(r, role) })
}

// IsAdmin is true for the admin role or an allowlisted email.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.admin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext reports false for anonymous requests.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, _ := ctx.Value(identityKey{}).(*Identity)
	return identity, identity != nil
}
