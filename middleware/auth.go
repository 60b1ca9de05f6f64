package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aaandrangom/biblioteca-api/config"
	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// CustomClaims contains the identity fields we put in every access token.
type CustomClaims struct {
	Cedula string      `json:"cedula"`
	Role   models.Role `json:"role"`
}

// Validate rejects tokens without a usable identity.
func (c *CustomClaims) Validate(ctx context.Context) error {
	if c.Cedula == "" {
		return errors.New("cedula claim is required")
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("role claim %d is not valid", c.Role)
	}
	return nil
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
// Tokens are HS256-signed with the shared secret and must carry our issuer and audience.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		w.Header().Set("Content-Type", "application/json")

		status := http.StatusUnauthorized
		body := `{"success":false,"error":{"code":"INVALID_TOKEN","message":"Invalid or expired token."}}`
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			status = http.StatusForbidden
			body = `{"success":false,"error":{"code":"MISSING_TOKEN","message":"Authentication token required."}}`
		} else {
			log.Printf("Encountered error while validating JWT: %v", err)
		}

		w.WriteHeader(status)
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			log.Printf("Failed to write error response: %v", writeErr)
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		authenticated := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			claims := token.CustomClaims.(*CustomClaims)

			c.Request = r
			c.Set("user_id", claims.Cedula)
			c.Set("user_role", claims.Role)
			c.Set("validated_claims", token)
			authenticated = true

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		// the error handler already wrote the response
		if !authenticated {
			c.Abort()
		}
	}
}

// GetUserID extracts the authenticated user's cedula from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetUserRole extracts the authenticated user's role from the Gin context
func GetUserRole(c *gin.Context) (models.Role, error) {
	role, exists := c.Get("user_role")
	if !exists {
		return 0, &AuthError{Code: "MISSING_ROLE", Message: "Role not found in context"}
	}

	r, ok := role.(models.Role)
	if !ok {
		return 0, &AuthError{Code: "INVALID_ROLE", Message: "Role is not in the expected format"}
	}

	return r, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// RequireRole is a middleware that only lets the given roles through
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRole(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_CLAIMS",
					"message": "Could not retrieve token claims",
				},
			})
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INSUFFICIENT_ROLE",
				"message": "Insufficient permissions to access this resource",
			},
		})
		c.Abort()
	}
}

// RequireStaff lets admins and librarians through
func RequireStaff() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleLibrarian)
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
