package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskflow-project/backend/models"
)

// Token lifetimes.
const (
	accessTokenTTL  = 2 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	resetTokenTTL   = 1 * time.Hour
	inviteTokenTTL  = 72 * time.Hour
)

// Token type claims keep the four token kinds from standing in for each other.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
	TokenReset   = "reset"
	TokenInvite  = "invite"
)

type Claims struct {
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"tokenType"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

func (s *JWTService) generate(userID, email string, role models.Role, tokenType string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) GenerateAccessToken(user *models.User) (string, error) {
	return s.generate(user.ID.Hex(), user.Email, user.Role, TokenAccess, accessTokenTTL)
}

func (s *JWTService) GenerateRefreshToken(user *models.User) (string, error) {
	return s.generate(user.ID.Hex(), user.Email, user.Role, TokenRefresh, refreshTokenTTL)
}

func (s *JWTService) GeneratePasswordResetToken(email string) (string, error) {
	return s.generate("", email, "", TokenReset, resetTokenTTL)
}

// GenerateInviteToken carries the invited email and the role the account will
// receive once the invite is accepted.
func (s *JWTService) GenerateInviteToken(email string, role models.Role) (string, error) {
	return s.generate("", email, role, TokenInvite, inviteTokenTTL)
}

// ValidateToken parses and verifies a token, additionally checking it is of
// the expected type.
func (s *JWTService) ValidateToken(tokenStr, expectedType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("unexpected token type")
	}
	return claims, nil
}
