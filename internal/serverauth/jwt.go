package serverauth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenExpiry = 10 * 24 * time.Hour

// JWTClaims represents the access token claims
type JWTClaims struct {
	EmployeeType string `json:"employee_type,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric user id held in the subject claim.
func (c *JWTClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		expiry: tokenExpiry,
	}
}

// WithExpiry overrides the token lifetime.
func (s *JWTService) WithExpiry(d time.Duration) *JWTService {
	s.expiry = d
	return s
}

// SignAccessToken creates an access token for a user with a unique jti for revocation
func (s *JWTService) SignAccessToken(userID int64, employeeType string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		EmployeeType: employeeType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken verifies and parses a JWT token
func (s *JWTService) VerifyToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
