package access

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/config"
	"github.com/medflow/stockroom/pkg/errors"
)

// Claims are the bearer token claims handed to API clients
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Token is an issued bearer token
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	TokenType   string    `json:"token_type"`
}

// TokenManager issues and validates HS256 bearer tokens
type TokenManager struct {
	config *config.JWTConfig
}

// NewTokenManager creates a token manager
func NewTokenManager(cfg *config.JWTConfig) *TokenManager {
	return &TokenManager{config: cfg}
}

// Generate issues a token for user
func (m *TokenManager) Generate(user *domain.User) (*Token, error) {
	now := time.Now()
	expiry := now.Add(m.config.Expiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return nil, err
	}

	return &Token{AccessToken: signed, ExpiresAt: expiry, TokenType: "Bearer"}, nil
}

// Validate parses a token and returns the principal it carries
func (m *TokenManager) Validate(tokenString string) (*actor.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.TokenInvalid()
	}

	return &actor.Principal{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}
