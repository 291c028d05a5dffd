// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for the integration API.
// Callers (the chat front end and the order-tracking backend) share a static
// secret with this service; there is no per-user identity at this layer.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth returns a Gin middleware that enforces a static bearer token.
//
// Behavior:
//   - Empty serverToken: 500 (the deployment is misconfigured; rejecting
//     everything loudly beats accepting everything silently).
//   - Missing or malformed Authorization header: 401.
//   - Token mismatch: 401. Comparison is constant-time.
//
// Auth runs before fingerprinting and any gateway call: an unauthorized
// request must leave no trace in the ledger.
func BearerAuth(serverToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serverToken == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "internal_error",
				"message":    "server token is not configured",
			})
			return
		}

		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			unauthorized(c, "missing bearer token")
			return
		}
		token := strings.TrimSpace(header[len(prefix):])
		if subtle.ConstantTimeCompare([]byte(token), []byte(serverToken)) != 1 {
			unauthorized(c, "invalid token")
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
