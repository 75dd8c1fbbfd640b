package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/product-catalog/internal/utils"
	apperrors "github.com/princeprakhar/product-catalog/pkg/errors"
)

const SubjectKey = "auth_subject"

// AuthMiddleware requires a valid HS256 bearer token signed with secret. With
// an empty secret every request passes.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(apperrors.Unauthorized("Authorization header required", nil))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			_ = c.Error(apperrors.Unauthorized("Bearer token required", nil))
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			_ = c.Error(apperrors.Unauthorized("Invalid token", err))
			c.Abort()
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}
