package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shipslot/internal/domain"
	"shipslot/internal/pkg/response"
)

// RequireRole ensures that the authenticated user has the specified role
func RequireRole(requiredRole domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		if role.(string) != string(requiredRole) {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CustomerOnly middleware requires the customer role
func CustomerOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleCustomer)
}

// CompanyOnly middleware requires the company role
func CompanyOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleCompany)
}
