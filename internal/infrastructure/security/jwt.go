// Package security provides admin token utilities
package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"
)

// ErrNotAdmin marks a valid token whose subject lacks admin access.
var ErrNotAdmin = errors.New("token subject is not admin")

// GenerateAdminToken mints a short-lived bearer token for the maintenance
// surface. The jti is a ULID so tokens are individually identifiable in
// logs.
func GenerateAdminToken(jwtSecret string, lifetime time.Duration) (string, error) {
	if jwtSecret == "" {
		return "", errors.New("jwt secret not configured")
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": "admin",
		"jti": ulid.Make().String(),
		"iat": now.Unix(),
		"exp": now.Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateJWT validates a token and returns its claims.
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(authHeader string) (string, bool) {
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader {
		return "", false
	}
	return token, true
}

// ValidateAdminToken validates a token and requires the admin subject.
func ValidateAdminToken(tokenString, jwtSecret string) error {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return err
	}
	if sub, ok := claims["sub"].(string); !ok || sub != "admin" {
		return ErrNotAdmin
	}
	return nil
}
