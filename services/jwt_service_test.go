package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Email: "ana@example.com",
		Role:  models.RoleEmployee,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := testUser()

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, models.RoleEmployee, claims.Role)
}

func TestTokenTypeIsEnforced(t *testing.T) {
	svc := NewJWTService("test-secret")
	user := testUser()

	refresh, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	// A refresh token must never authenticate a request.
	_, err = svc.ValidateToken(refresh, TokenAccess)
	require.Error(t, err)

	_, err = svc.ValidateToken(refresh, TokenRefresh)
	require.NoError(t, err)
}

func TestResetAndInviteTokens(t *testing.T) {
	svc := NewJWTService("test-secret")

	reset, err := svc.GeneratePasswordResetToken("ana@example.com")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(reset, TokenReset)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Empty(t, claims.UserID)

	invite, err := svc.GenerateInviteToken("novi@example.com", models.RoleEmployee)
	require.NoError(t, err)
	claims, err = svc.ValidateToken(invite, TokenInvite)
	require.NoError(t, err)
	assert.Equal(t, "novi@example.com", claims.Email)
	assert.Equal(t, models.RoleEmployee, claims.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").ValidateToken(token, TokenAccess)
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret")

	_, err := svc.ValidateToken("not.a.token", TokenAccess)
	require.Error(t, err)
}
