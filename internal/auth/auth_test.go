package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-rfq-backend/internal/config"
)

const testSecret = "0123456789abcdef-test-secret"

func bearerRequest(tok string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	return r
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{"buyer": RoleBuyer, " Customer ": RoleBuyer, "VENDOR": RoleVendor, "supplier": RoleVendor, "admin": RoleAdmin}
	for in, want := range cases {
		got, ok := ParseRole(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseRole("guest")
	assert.False(t, ok)
}

func TestHeaderIdentifier(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := HeaderIdentifier{}.Identify(r)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	r.Header.Set(HeaderUserID, "u1")
	_, err = HeaderIdentifier{}.Identify(r)
	assert.ErrorIs(t, err, ErrInvalidRole)

	r.Header.Set(HeaderUserRole, "vendor")
	id, err := HeaderIdentifier{}.Identify(r)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Role: RoleVendor}, id)
}

func TestJWTIdentifier_RoundTrip(t *testing.T) {
	j := NewJWTIdentifier(testSecret, "rfq-auth")
	tok, err := j.IssueToken("buyer-1", RoleBuyer, time.Hour)
	require.NoError(t, err)

	id, err := j.Identify(bearerRequest(tok))
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "buyer-1", Role: RoleBuyer}, id)

	// scheme is case-insensitive
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer "+tok)
	_, err = j.Identify(r)
	assert.NoError(t, err)
}

func TestJWTIdentifier_Rejects(t *testing.T) {
	fixed := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	j := NewJWTIdentifier(testSecret, "rfq-auth")
	j.now = func() time.Time { return fixed }

	t.Run("missing header", func(t *testing.T) {
		_, err := j.Identify(bearerRequest(""))
		assert.ErrorIs(t, err, ErrMissingCredentials)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := j.IssueToken("u1", RoleBuyer, time.Minute)
		require.NoError(t, err)
		later := *j
		later.now = func() time.Time { return fixed.Add(time.Hour) }
		_, err = later.Identify(bearerRequest(tok))
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTIdentifier("another-secret-of-16-bytes", "rfq-auth")
		other.now = j.now
		tok, err := other.IssueToken("u1", RoleBuyer, time.Hour)
		require.NoError(t, err)
		_, err = j.Identify(bearerRequest(tok))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTIdentifier(testSecret, "someone-else")
		other.now = j.now
		tok, err := other.IssueToken("u1", RoleBuyer, time.Hour)
		require.NoError(t, err)
		_, err = j.Identify(bearerRequest(tok))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u1",
				Issuer:    "rfq-auth",
				ExpiresAt: jwt.NewNumericDate(fixed.Add(time.Hour)),
			},
			Role: "admin",
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = j.Identify(bearerRequest(tok))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		tok, err := j.IssueToken("u1", Role("guest"), time.Hour)
		require.NoError(t, err)
		_, err = j.Identify(bearerRequest(tok))
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestFromConfig(t *testing.T) {
	assert.IsType(t, HeaderIdentifier{}, FromConfig(config.AuthConfig{Mode: "header"}))
	assert.IsType(t, &JWTIdentifier{}, FromConfig(config.AuthConfig{Mode: "jwt", JWTSecret: testSecret}))
}
