package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"formfill/services"
	"formfill/utils"
)

// RequireOperator guards the session control routes with an HS256 bearer token.
// A nil service disables the check.
func RequireOperator(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtService == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			utils.UnauthorizedError(c, "Authorization header required")
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			utils.LogWarn("Operator token rejected", map[string]interface{}{"path": c.Request.URL.Path, "error": err.Error()})
			utils.UnauthorizedError(c, "Invalid or expired token")
			return
		}

		c.Set("operator", claims.Operator)
		c.Next()
	}
}
