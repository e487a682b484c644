package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/scamguard/internal/core"
)

const testSecret = "test-secret"

func TestIssueAndAuthenticate(t *testing.T) {
	p := NewJWTProvider(testSecret, "scamguard")

	token, err := p.Issue(&core.User{ID: "u-1", Email: "a@example.com", Role: core.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	user, err := p.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "a@example.com", user.Email)
	assert.True(t, user.IsAdmin())
}

func TestAuthenticateRejects(t *testing.T) {
	p := NewJWTProvider(testSecret, "scamguard")

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "u-1",
		Issuer:    "scamguard",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"

	noSubject := valid
	noSubject.Subject = ""

	noExpiry := valid
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"wrong secret", sign(Claims{RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("other"))},
		{"expired", sign(Claims{RegisteredClaims: expired}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong issuer", sign(Claims{RegisteredClaims: wrongIssuer}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"missing subject", sign(Claims{RegisteredClaims: noSubject}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"missing expiry", sign(Claims{RegisteredClaims: noExpiry}, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong algorithm", sign(Claims{RegisteredClaims: valid}, jwt.SigningMethodHS512, []byte(testSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Authenticate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestUnknownRoleFallsBackToUser(t *testing.T) {
	p := NewJWTProvider(testSecret, "")
	token, err := p.Issue(&core.User{ID: "u-2", Role: "superuser"}, time.Hour)
	require.NoError(t, err)

	user, err := p.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, user.Role)
}

func TestDisabledProvider(t *testing.T) {
	p := NewJWTProvider("", "")
	assert.False(t, p.Enabled())
	_, err := p.Authenticate("anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestContextUser(t *testing.T) {
	p := NewJWTProvider(testSecret, "")

	_, ok := p.CurrentUser(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &core.User{ID: "u-3"})
	user, ok := p.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-3", user.ID)

	_, ok = UserFromContext(WithUser(context.Background(), nil))
	assert.False(t, ok)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	tok, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", tok)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}
