package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the token payload supplied by the identity provider. The
// engine consumes it as-is; issuance lives with the auth service that fronts
// this one.
type IdentityClaims struct {
	UserID              string   `json:"user_id"`
	Role                string   `json:"role"`
	DepartmentIDs       []string `json:"department_ids"`
	MyDriveDepartmentID string   `json:"my_drive_department_id,omitempty"`
	GroupIDs            []string `json:"group_ids"`
	jwt.RegisteredClaims
}

// VerifyToken parses and validates a bearer token with the shared secret.
func VerifyToken(tokenString, secret string) (*IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GenerateToken signs an identity token. Used by tests and local tooling; in
// production tokens come from the identity provider.
func GenerateToken(claims IdentityClaims, secret, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
