package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type tokenClaims struct {
	UserID uint   `json:"user_id"`
	Type   string `json:"typ"`
	jwt.StandardClaims
}

// TokenManager signs and verifies HS256 tokens for a single secret.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

func (m *TokenManager) GenerateAccessToken(userID uint) (string, error) {
	return m.sign(userID, tokenTypeAccess, m.accessTTL)
}

// GenerateRefreshToken returns the signed token and its expiry.
func (m *TokenManager) GenerateRefreshToken(userID uint) (string, time.Time, error) {
	token, err := m.sign(userID, tokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, m.now().Add(m.refreshTTL), nil
}

func (m *TokenManager) sign(userID uint, typ string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := tokenClaims{
		UserID: userID,
		Type:   typ,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates a bearer token and returns its claims.
func (m *TokenManager) ParseAccessToken(raw string) (*UserClaims, error) {
	return m.parse(raw, tokenTypeAccess)
}

func (m *TokenManager) ParseRefreshToken(raw string) (*UserClaims, error) {
	return m.parse(raw, tokenTypeRefresh)
}

func (m *TokenManager) parse(raw, typ string) (*UserClaims, error) {
	claims := &tokenClaims{}
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == 0 || claims.Type != typ {
		return nil, ErrTokenInvalid
	}

	return &UserClaims{UserID: claims.UserID, TokenID: claims.Id}, nil
}
