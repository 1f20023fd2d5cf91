package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	APIKeyHeader      = "X-API-Key"
	AdminAPIKeyHeader = "X-Admin-API-Key"
)

// RequireAPIKey guards a route group with a static API key compared in
// constant time. When jwtSecret is set, a valid Bearer HMAC JWT is accepted
// as an alternative.
func RequireAPIKey(header, key, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(header)
		if provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(key)) == 1 {
			c.Next()
			return
		}

		if jwtSecret != "" {
			auth := c.GetHeader("Authorization")
			parts := strings.Fields(auth)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				_, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
					if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrTokenMalformed
					}
					return []byte(jwtSecret), nil
				}, jwt.WithLeeway(5*time.Second))
				if err == nil {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
	}
}
