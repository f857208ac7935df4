package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Access tokens are short-lived; clients re-exchange their API key
const accessTokenTTL = 1 * time.Hour

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	Owner string `json:"owner"`
	Role  string `json:"role"` // always "api_client"
	jwt.RegisteredClaims
}

// GenerateAccessToken generates a JWT token for an authenticated API key owner
func GenerateAccessToken(secret []byte, owner string) (string, time.Time, error) {
	expiresAt := time.Now().Add(accessTokenTTL)
	claims := &JWTClaims{
		Owner: owner,
		Role:  "api_client",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(secret []byte, tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
