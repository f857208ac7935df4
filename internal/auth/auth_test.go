package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestKeyStoreVerify(t *testing.T) {
	store := NewKeyStore(map[string]string{
		"demo-key-12345": "demo_user",
		"test-key-67890": "test_user",
	})

	owner, ok := store.Verify("demo-key-12345")
	if !ok {
		t.Error("Expected known key to verify")
	}
	if owner != "demo_user" {
		t.Errorf("Expected owner demo_user, got %s", owner)
	}

	if _, ok := store.Verify("wrong-key"); ok {
		t.Error("Expected unknown key to be rejected")
	}
	if _, ok := store.Verify(""); ok {
		t.Error("Expected empty key to be rejected")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, expiresAt, err := GenerateAccessToken(secret, "demo_user")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	if token == "" {
		t.Error("Expected non-empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Error("Expected expiry in the future")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.Owner != "demo_user" {
		t.Errorf("Expected owner demo_user, got %s", claims.Owner)
	}
	if claims.Role != "api_client" {
		t.Errorf("Expected role api_client, got %s", claims.Role)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := GenerateAccessToken([]byte("secret-a"), "demo_user")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	if _, err := ValidateToken([]byte("secret-b"), token); err == nil {
		t.Error("Expected validation to fail with a different secret")
	}
	if _, err := ValidateToken([]byte("secret-a"), "not-a-token"); err == nil {
		t.Error("Expected validation to fail for malformed token")
	}
}

func TestValidateTokenRejectsOtherSigningMethods(t *testing.T) {
	secret := []byte("test-secret")

	// A token signed with another HMAC variant must not validate even
	// though the secret matches
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, &JWTClaims{Owner: "demo_user"})
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	if _, err := ValidateToken(secret, signed); err == nil {
		t.Error("Expected validation to fail for a non-HS256 token")
	}
}
