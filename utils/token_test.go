package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, 24*time.Hour)

	token, err := m.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user 42, got %d", claims.UserID)
	}
	if claims.TokenID == "" {
		t.Error("expected a token id")
	}
}

func TestParseRejectsWrongSecretAndType(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Hour)
	other := NewTokenManager("other", time.Hour, time.Hour)

	token, _ := other.GenerateAccessToken(1)
	if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for foreign secret, got %v", err)
	}

	refresh, _, _ := m.GenerateRefreshToken(1)
	if _, err := m.ParseAccessToken(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("refresh token must not be accepted as access token, got %v", err)
	}
	if _, err := m.ParseRefreshToken(refresh); err != nil {
		t.Errorf("ParseRefreshToken() error = %v", err)
	}

	if _, err := m.ParseAccessToken("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestParseExpiredToken(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateAccessToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, time.Hour)
	claims := tokenClaims{UserID: 1, Type: tokenTypeAccess, StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ParseAccessToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected none alg to be rejected, got %v", err)
	}
}

func TestRefreshTokenExpiry(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", time.Hour, 30*24*time.Hour)
	m.now = func() time.Time { return fixed }

	_, exp, err := m.GenerateRefreshToken(1)
	if err != nil {
		t.Fatal(err)
	}
	if !exp.Equal(fixed.Add(30 * 24 * time.Hour)) {
		t.Errorf("unexpected expiry %v", exp)
	}
}
