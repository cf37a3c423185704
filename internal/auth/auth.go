// Package auth identifies the caller of an HTTP request.
//
// Two identifiers are provided: JWTIdentifier verifies an HS256 bearer token
// and is meant for deployments, HeaderIdentifier trusts X-User-ID and
// X-User-Role and is meant for local development and tests behind a trusted
// gateway. Both yield an Identity carrying the user id and role.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tbourn/go-rfq-backend/internal/config"
)

// Role is the caller's part in a negotiation.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// ParseRole maps a claim or header value to a Role. "customer" is accepted
// as an alias for buyer.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buyer", "customer":
		return RoleBuyer, true
	case "vendor", "supplier":
		return RoleVendor, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// Identity is an authenticated caller.
type Identity struct {
	UserID string
	Role   Role
}

// Identifier resolves the caller of r.
type Identifier interface {
	Identify(r *http.Request) (Identity, error)
}

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidRole        = errors.New("invalid role")
)

// Header names read by HeaderIdentifier.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// HeaderIdentifier trusts identity headers set by an upstream gateway.
type HeaderIdentifier struct{}

// Identify implements Identifier.
func (HeaderIdentifier) Identify(r *http.Request) (Identity, error) {
	uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if uid == "" {
		return Identity{}, ErrMissingCredentials
	}
	role, ok := ParseRole(r.Header.Get(HeaderUserRole))
	if !ok {
		return Identity{}, ErrInvalidRole
	}
	return Identity{UserID: uid, Role: role}, nil
}

// Claims are the JWT claims this service issues and accepts. The subject is
// the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTIdentifier verifies HS256 bearer tokens.
type JWTIdentifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTIdentifier creates an identifier for secret. When issuer is non-empty
// tokens must carry it.
func NewJWTIdentifier(secret, issuer string) *JWTIdentifier {
	return &JWTIdentifier{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// IssueToken signs a token for userID with role, valid for ttl. It backs the
// development token tooling and tests; production tokens come from the
// identity provider sharing the secret.
func (j *JWTIdentifier) IssueToken(userID string, role Role, ttl time.Duration) (string, error) {
	now := j.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Identify implements Identifier.
func (j *JWTIdentifier) Identify(r *http.Request) (Identity, error) {
	raw, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return Identity{}, ErrMissingCredentials
	}
	claims, err := j.parse(raw)
	if err != nil {
		return Identity{}, err
	}
	role, ok := ParseRole(claims.Role)
	if !ok {
		return Identity{}, ErrInvalidRole
	}
	return Identity{UserID: claims.Subject, Role: role}, nil
}

func (j *JWTIdentifier) parse(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearerToken(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

// FromConfig returns the configured Identifier.
func FromConfig(cfg config.AuthConfig) Identifier {
	if cfg.Mode == "jwt" {
		return NewJWTIdentifier(cfg.JWTSecret, cfg.JWTIssuer)
	}
	return HeaderIdentifier{}
}
