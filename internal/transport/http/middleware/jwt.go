package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"docuquery/internal/model"
	"docuquery/internal/pkg/jwtutil"
	"docuquery/internal/transport/http/response"
)

const (
	ContextUserIDKey    = "user_id"
	ContextCompanyIDKey = "company_id"
	ContextRoleKey      = "role"
)

// AuthJWT validates the bearer token and puts the trusted identity, including
// the tenant, into the request context. Every downstream tenant filter reads
// company_id from here and never from request payloads.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextCompanyIDKey, claims.CompanyID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// RequireAdmin gates document management to company admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleAny, exists := c.Get(ContextRoleKey)
		role, ok := roleAny.(string)
		if !exists || !ok || role != model.RoleAdmin {
			response.Error(c, 403, response.CodeForbidden, "admin role required")
			c.Abort()
			return
		}
		c.Next()
	}
}
