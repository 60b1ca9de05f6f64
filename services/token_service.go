package services

import (
	"fmt"
	"time"

	"github.com/aaandrangom/biblioteca-api/config"
	"github.com/aaandrangom/biblioteca-api/models"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an access token stays valid after login
const TokenTTL = time.Hour

// TokenClaims is the payload of an access token
type TokenClaims struct {
	Cedula string      `json:"cedula"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues HS256 access tokens that middleware.EnsureValidToken accepts
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service from the JWT settings in cfg
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      TokenTTL,
		now:      time.Now,
	}
}

// WithTTL returns a copy of the service issuing tokens with a different lifetime
func (s *TokenService) WithTTL(ttl time.Duration) *TokenService {
	clone := *s
	clone.ttl = ttl
	return &clone
}

// Issue signs a token for the user and returns it with its expiry
func (s *TokenService) Issue(cedula string, role models.Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := &TokenClaims{
		Cedula: cedula,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   cedula,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}
