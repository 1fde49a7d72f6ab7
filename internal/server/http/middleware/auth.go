package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	pkgAuth "github.com/fueldrop/fueldrop/internal/pkg/auth"
)

const (
	// UserIDContextKey is a gin context key for the authenticated user id.
	UserIDContextKey = "userID"
	// RoleContextKey is a gin context key for the authenticated role.
	RoleContextKey = "userRole"
	authCookieName = "fueldrop_token"
)

// Authenticator verifies a token and resolves its identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (pkgAuth.Identity, error)
}

// AuthRequired ensures user is authenticated before accessing handler.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		identity, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, pkgAuth.ErrInvalidToken), errors.Is(err, domainErrors.ErrNotFound):
				c.AbortWithStatus(http.StatusUnauthorized)
			case errors.Is(err, domainErrors.ErrPermission):
				c.AbortWithStatus(http.StatusForbidden)
			default:
				c.AbortWithStatus(http.StatusInternalServerError)
			}
			return
		}

		c.Set(UserIDContextKey, identity.UserID)
		c.Set(RoleContextKey, identity.Role)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}

	// SSE clients cannot set headers through EventSource; allow the
	// token as a query parameter on the stream endpoint.
	return c.Query("token")
}
