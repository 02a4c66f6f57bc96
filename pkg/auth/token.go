package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature or claims
// verification, including expired ones.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager mints and verifies the bearer tokens handed out after a
// successful confirmation-code exchange.
type TokenManager interface {
	Generate(userID, role string) (string, error)
	Validate(tokenString string) (*Claims, error)
}

// Claims is the payload carried by every access token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type jwtManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewTokenManager builds an HS256 TokenManager. The key must be at least 32
// bytes; anything shorter weakens HMAC-SHA256 below its design strength.
func NewTokenManager(secretKey string, tokenDuration time.Duration) (TokenManager, error) {
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("JWT secret key must be at least 32 bytes, got %d", len(secretKey))
	}
	if tokenDuration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", tokenDuration)
	}
	return &jwtManager{secretKey: []byte(secretKey), tokenDuration: tokenDuration}, nil
}

func (m *jwtManager) Generate(userID, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "reviewhub",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *jwtManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
