// Package identity resolves the authenticated caller from an HS256 bearer
// token and carries it on the request context.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mikey/scamguard/internal/core"
)

// ErrInvalidToken is returned for tokens that fail parsing or verification
var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload
type Claims struct {
	Email string    `json:"email,omitempty"`
	Role  core.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type userKey struct{}

// JWTProvider implements core.IdentityProvider
type JWTProvider struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTProvider creates a provider for tokens signed with secret. An
// empty issuer accepts any issuer.
func NewJWTProvider(secret, issuer string) *JWTProvider {
	return &JWTProvider{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// Enabled reports whether a signing secret is configured
func (p *JWTProvider) Enabled() bool {
	return len(p.secret) > 0
}

// Authenticate verifies a token and returns its user
func (p *JWTProvider) Authenticate(tokenString string) (*core.User, error) {
	if !p.Enabled() {
		return nil, fmt.Errorf("%w: authentication is not configured", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role := claims.Role
	if role != core.RoleAdmin {
		role = core.RoleUser
	}
	return &core.User{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// Issue signs a token for a user. Used by tooling and tests.
func (p *JWTProvider) Issue(user *core.User, ttl time.Duration) (string, error) {
	now := p.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// CurrentUser returns the user attached to ctx
func (p *JWTProvider) CurrentUser(ctx context.Context) (*core.User, bool) {
	return UserFromContext(ctx)
}

// WithUser attaches a user to ctx
func WithUser(ctx context.Context, user *core.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user attached to ctx, if any
func UserFromContext(ctx context.Context) (*core.User, bool) {
	user, ok := ctx.Value(userKey{}).(*core.User)
	return user, ok && user != nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
