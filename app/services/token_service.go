// Package services provides external service integrations and technical concerns like remote store queries and tokens
package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/storepulse/storepulse/utils"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService handles shop session token generation and validation
type TokenService interface {
	GenerateSessionToken(shopID uint, shopDomain string) (string, error)
	ValidateSessionToken(token string) (*ShopTokenClaims, error)
}

// ShopTokenClaims represents the claims in a shop session token
type ShopTokenClaims struct {
	ShopID    uint      `json:"shop_id"`
	Domain    string    `json:"domain"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenID   string    `json:"jti"`
}

// TokenServiceImpl implements TokenService using HS256 signing
type TokenServiceImpl struct {
	sessionTTL time.Duration
	secretKey  []byte
	issuer     string
	audience   string
}

// NewTokenService creates a new token service
func NewTokenService(sessionTTL time.Duration, issuer, audience, secretKey string) (TokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required")
	}

	return &TokenServiceImpl{
		sessionTTL: sessionTTL,
		secretKey:  []byte(secretKey),
		issuer:     issuer,
		audience:   audience,
	}, nil
}

// GenerateSessionToken generates a shop-scoped session token
func (s *TokenServiceImpl) GenerateSessionToken(shopID uint, shopDomain string) (string, error) {
	now := utils.UTCNow()

	tokenID, err := generateTokenID()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{
		"shop_id": shopID,
		"domain":  shopDomain,
		"jti":     tokenID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.sessionTTL).Unix(),
		"iss":     s.issuer,
		"aud":     s.audience,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateSessionToken validates a session token and returns its claims
func (s *TokenServiceImpl) ValidateSessionToken(token string) (*ShopTokenClaims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "expired") || strings.Contains(err.Error(), "exp") {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	shopID, ok := claims["shop_id"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}
	domain, ok := claims["domain"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}
	tokenID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}
	issuedAt, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}
	expiresAt, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	if utils.UTCNow().After(time.Unix(int64(expiresAt), 0)) {
		return nil, ErrTokenExpired
	}

	return &ShopTokenClaims{
		ShopID:    uint(shopID),
		Domain:    domain,
		TokenID:   tokenID,
		IssuedAt:  time.Unix(int64(issuedAt), 0),
		ExpiresAt: time.Unix(int64(expiresAt), 0),
	}, nil
}

// generateTokenID generates a unique token ID
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
