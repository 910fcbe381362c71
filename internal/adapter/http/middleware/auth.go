package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/dtnguyen/shop-api/internal/entity"
)

const userKey = "currentUser"

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.User, error)
}

type Auth struct {
	identity Authenticator
}

func NewAuth(identity Authenticator) *Auth {
	return &Auth{identity: identity}
}

// Authenticate extracts the bearer token, resolves the caller and attaches
// it to the request context. Inactive accounts are rejected even with a
// valid token.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			abort(c, http.StatusUnauthorized, "Not authorized, no token provided")
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		user, err := a.identity.Authenticate(c.Request.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrForbidden):
				abort(c, http.StatusForbidden, "User account is disabled")
			case errors.Is(err, domain.ErrNotFound):
				abort(c, http.StatusNotFound, "User not found")
			default:
				c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
				abort(c, http.StatusUnauthorized, "Invalid or expired token")
			}
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRoles gates a route to callers whose role is in the allowed set.
// Must run after Authenticate.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			abort(c, http.StatusUnauthorized, "Not authorized")
			return
		}
		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "User role '"+string(u.Role)+"' is not authorized")
	}
}

// CurrentUser returns the authenticated caller, or nil on public routes.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

func abort(c *gin.Context, code int, msg string) {
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	c.AbortWithStatusJSON(code, gin.H{"status": status, "message": msg})
}
