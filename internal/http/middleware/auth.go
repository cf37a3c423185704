package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-rfq-backend/internal/auth"
)

// Context keys set by Authenticate.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

// Authenticate resolves the caller with id and stores the user id and role in
// the Gin context. Unidentified requests get 401.
func Authenticate(id auth.Identifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, err := id.Identify(c.Request)
		if err != nil {
			msg := "authentication required"
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				msg = "token has expired"
			case errors.Is(err, auth.ErrInvalidRole):
				msg = "unknown role"
			case errors.Is(err, auth.ErrInvalidToken):
				msg = "invalid token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": GetRequestID(c),
				"code":       "unauthorized",
				"message":    msg,
			})
			return
		}
		c.Set(CtxUserID, who.UserID)
		c.Set(CtxUserRole, who.Role)
		enrichLogger(c, func(l zerolog.Context) zerolog.Context {
			return l.Str("user_id", who.UserID).Str("role", string(who.Role))
		})
		c.Next()
	}
}

// RoleFrom returns the role stored by Authenticate.
func RoleFrom(c *gin.Context) (auth.Role, bool) {
	v, ok := c.Get(CtxUserRole)
	if !ok {
		return "", false
	}
	r, ok := v.(auth.Role)
	return r, ok && r != ""
}

// RequireRole aborts with 403 unless the caller holds one of roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		have, ok := RoleFrom(c)
		if ok {
			for _, r := range roles {
				if r == have {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"request_id": GetRequestID(c),
			"code":       "forbidden",
			"message":    "insufficient role",
		})
	}
}
