package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unilibrary/bagdesk-api/internal/service"
	appErrors "github.com/unilibrary/bagdesk-api/pkg/errors"
	"github.com/unilibrary/bagdesk-api/pkg/response"
)

// ContextSessionKey is the gin context key storing session claims.
const ContextSessionKey = "currentSession"

// JWT protects routes by requiring a valid librarian session token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, claims)
		c.Next()
	}
}
