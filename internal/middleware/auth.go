package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ManShanJu-JiShan/manshanspace/internal/services"
)

// Context keys set for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// AuthMiddleware guards a route group with bearer-token auth. Every token
// failure collapses to 401; the distinction lives in the message only.
func AuthMiddleware(tokens services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		// "Bearer " prefix is case-sensitive
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims, err := tokens.Validate(tokenStr)
		if err != nil {
			msg := "Token validation failed"
			switch err {
			case services.ErrTokenExpired:
				msg = "Token expired"
			case services.ErrTokenSignature:
				msg = "Token signature invalid"
			case services.ErrTokenMalformed:
				msg = "Token malformed"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(CtxUserID, claims.UID)
		c.Set(CtxEmail, claims.Email)
		c.Next()
	}
}
