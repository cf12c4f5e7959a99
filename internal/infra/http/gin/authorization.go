package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"seabook/internal/infra/security"
)

// RequireAdmin gates a route group behind a bearer token carrying the admin
// role.
func RequireAdmin(tokens security.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		claims, err := tokens.RequireRole(raw, security.RoleAdmin)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.Set("admin_subject", claims.Subject)
		c.Next()
	}
}

func extractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
