package middleware

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// InternalTokenAuth protects maintenance endpoints using a static bearer
// token. Meant for cron jobs and ops tooling, not end users.
func InternalTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ipAllowed(c) {
			logInternalAuthFailure(c, http.StatusForbidden, "ip_not_allowed")
			writeInternalError(c, http.StatusForbidden, "AUTH_INVALID", "IP not allowed")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logInternalAuthFailure(c, http.StatusUnauthorized, "missing_auth")
			writeInternalError(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logInternalAuthFailure(c, http.StatusUnauthorized, "invalid_auth_format")
			writeInternalError(c, http.StatusUnauthorized, "AUTH_INVALID", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		expected := os.Getenv("INTERNAL_API_TOKEN")
		if expected == "" {
			logInternalAuthFailure(c, http.StatusInternalServerError, "token_not_configured")
			writeInternalError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal token is not configured")
			c.Abort()
			return
		}

		if parts[1] != expected {
			logInternalAuthFailure(c, http.StatusForbidden, "invalid_token")
			writeInternalError(c, http.StatusForbidden, "AUTH_INVALID", "Invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}

func writeInternalError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ipAllowed(c *gin.Context) bool {
	allowed := strings.TrimSpace(os.Getenv("INTERNAL_ALLOWED_IPS"))
	if allowed == "" {
		return true
	}
	clientIP := c.ClientIP()
	for _, ip := range strings.Split(allowed, ",") {
		if strings.TrimSpace(ip) == clientIP {
			return true
		}
	}
	return false
}

func logInternalAuthFailure(c *gin.Context, status int, reason string) {
	log.Printf("internal_auth status=%d request_id=%s reason=%s", status, requestID(c), reason)
}
