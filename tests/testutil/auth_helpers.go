package testutil

import (
	"github.com/aaandrangom/biblioteca-api/middleware"
	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(cedula string, role models.Role) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  "biblioteca-api",
			Subject: cedula,
		},
		CustomClaims: &middleware.CustomClaims{
			Cedula: cedula,
			Role:   role,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, cedula string, role models.Role) {
	c.Set("user_id", cedula)
	c.Set("user_role", role)
	c.Set("validated_claims", MockValidatedClaims(cedula, role))
}

// MockAuth is a drop-in replacement for middleware.EnsureValidToken that authenticates every request as cedula
func MockAuth(cedula string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, cedula, role)
		c.Next()
	}
}
