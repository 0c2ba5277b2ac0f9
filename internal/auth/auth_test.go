package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundtrip(t *testing.T) {
	secret := "test-secret"

	token, err := GenerateAccessToken("user-1", []string{"admin"}, secret)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseAccessToken(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %s", claims.Subject)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "admin" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("user-1", nil, "secret-a")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAccessToken(token, "secret-b"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	secret := "test-secret"
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAccessToken(signed, secret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseAccessToken_RejectsUnsignedToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAccessToken(signed, "secret"); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword("hunter2", hash) {
		t.Fatal("expected correct password to verify")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestParseExpiry(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if got, ok := parseExpiry(want); !ok || !got.Equal(want) {
		t.Fatalf("expected time.Time passthrough, got %v %v", got, ok)
	}
	if got, ok := parseExpiry("2026-03-01 12:00:00"); !ok || !got.Equal(want) {
		t.Fatalf("expected text timestamp to parse, got %v %v", got, ok)
	}
	if _, ok := parseExpiry("not a time"); ok {
		t.Fatal("expected failure for garbage input")
	}
	if _, ok := parseExpiry(nil); ok {
		t.Fatal("expected failure for nil")
	}
}

func TestExtractRoles(t *testing.T) {
	if roles := extractRoles(`["admin","member"]`); len(roles) != 2 || roles[0] != "admin" {
		t.Fatalf("unexpected roles: %v", roles)
	}
	if roles := extractRoles([]byte(`["admin"]`)); len(roles) != 1 {
		t.Fatalf("unexpected roles: %v", roles)
	}
	if roles := extractRoles("not json"); roles != nil {
		t.Fatalf("expected nil for bad json, got %v", roles)
	}
	if roles := extractRoles(nil); roles != nil {
		t.Fatalf("expected nil for nil, got %v", roles)
	}
}
