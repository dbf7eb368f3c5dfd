package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// GrantClaims is the payload of a moderator grant token. An admin issues the
// token out of band; whoever redeems it gets the moderator flag.
type GrantClaims struct {
	IssuedBy int64 `json:"issued_by"`
	jwt.RegisteredClaims
}

// GenerateGrantToken creates a single-purpose moderator grant token valid
// for 24 hours. The jti makes every grant distinct even when issued in the
// same second.
func GenerateGrantToken(issuedBy int64, secret string) (string, error) {
	claims := &GrantClaims{
		IssuedBy: issuedBy,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateGrantToken validates and parses a moderator grant token.
func ValidateGrantToken(tokenString, secret string) (*GrantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &GrantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*GrantClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
