package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/httpx"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/requestctx"
)

const verifyTimeout = 5 * time.Second

var (
	// ErrTokenExpired lets verifiers other than the Admin SDK report an expired token.
	ErrTokenExpired = errors.New("auth: firebase id token expired")
	ErrTokenInvalid = errors.New("auth: firebase id token invalid")
)

// TokenVerifier checks a Firebase ID token. *firebaseauth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Authenticator turns bearer tokens into an Identity on the request context.
type Authenticator struct {
	verifier    TokenVerifier
	roleClaim   string
	adminEmails map[string]bool
}

type Option func(*Authenticator)

// WithRoleClaim reads roles from claim instead of "role".
func WithRoleClaim(claim string) Option {
	return func(a *Authenticator) {
		if claim = strings.TrimSpace(claim); claim != "" {
			a.roleClaim = claim
		}
	}
}

// WithAdminEmails treats identities with one of these verified emails as admins.
func WithAdminEmails(emails ...string) Option {
	return func(a *Authenticator) {
		for _, email := range emails {
			if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
				a.adminEmails[email] = true
			}
		}
	}
}

// NewAuthenticator accepts a nil verifier; every token is then refused with 401.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{verifier: verifier, roleClaim: "role", adminEmails: map[string]bool{}}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireFirebaseAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireFirebaseAuth() func(http.Handler) http.Handler {
	return a.middleware(false)
}

// OptionalFirebaseAuth lets requests without an Authorization header through anonymously. A
// header that is present must still carry a valid token.
func (a *Authenticator) OptionalFirebaseAuth() func(http.Handler) http.Handler {
	return a.middleware(true)
}

func (a *Authenticator) middleware(optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" && optional {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(header)
			if !ok {
				deny(w, r, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}
			identity, err := a.verify(r.Context(), token)
			if err != nil {
				denyVerification(w, r, err)
				return
			}
			requestctx.SetUserID(r.Context(), identity.UID)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

var errNoVerifier = errors.New("authorization service unavailable")

func (a *Authenticator) verify(ctx context.Context, raw string) (*Identity, error) {
	if a == nil || a.verifier == nil {
		return nil, errNoVerifier
	}
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	token, err := a.verifier.VerifyIDToken(ctx, raw)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		UID:   token.UID,
		Email: strings.ToLower(stringClaim(token.Claims, "email")),
		Name:  stringClaim(token.Claims, "name"),
		Roles: roleClaim(token.Claims[a.roleClaim]),
		token: token,
	}
	if len(identity.Roles) == 0 {
		identity.Roles = []string{RoleUser}
	}
	identity.admin = identity.HasRole(RoleAdmin) || (identity.Email != "" && a.adminEmails[identity.Email])
	return identity, nil
}

// RequireAdmin must run after RequireFirebaseAuth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			switch {
			case !ok:
				deny(w, r, http.StatusUnauthorized, "unauthenticated", "authentication required")
			case !identity.IsAdmin():
				deny(w, r, http.StatusForbidden, "forbidden", "admin access required")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// roleClaim accepts a single role, a list of roles, or a map of role to enabled flag. Roles are
// lowercased and deduplicated in claim order.
func roleClaim(raw any) []string {
	var names []string
	switch v := raw.(type) {
	case string:
		names = []string{v}
	case []string:
		names = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
	case map[string]any:
		for name, enabled := range v {
			if on, _ := enabled.(bool); on {
				names = append(names, name)
			}
		}
	}

	var roles []string
	for _, name := range names {
		role := strings.ToLower(strings.TrimSpace(name))
		if role != "" && !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	return roles
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func deny(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	httpx.WriteError(r.Context(), w, httpx.NewError(code, message, status))
}

func denyVerification(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoVerifier):
		deny(w, r, http.StatusUnauthorized, "unauthenticated", err.Error())
	case errors.Is(err, ErrTokenExpired), firebaseauth.IsIDTokenExpired(err):
		deny(w, r, http.StatusUnauthorized, "token_expired", "firebase id token expired")
	case errors.Is(err, ErrTokenInvalid), firebaseauth.IsIDTokenInvalid(err):
		deny(w, r, http.StatusUnauthorized, "invalid_token", "firebase id token invalid")
	default:
		deny(w, r, http.StatusUnauthorized, "invalid_token", "firebase id token verification failed")
	}
}
