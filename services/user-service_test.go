package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-project/backend/apperrors"
	"taskflow-project/backend/models"
)

func newPasswordValidator() *UserService {
	return &UserService{
		BlackList: map[string]bool{"Password1!": true},
	}
}

func TestValidatePasswordAccepted(t *testing.T) {
	svc := newPasswordValidator()

	for _, password := range []string{"Korisnik7!", "Str0ng.pass", "A1b2c3d4*"} {
		assert.NoError(t, svc.ValidatePassword(password), password)
	}
}

func TestValidatePasswordRejections(t *testing.T) {
	svc := newPasswordValidator()

	cases := map[string]string{
		"too short":    "Ab1!",
		"no uppercase": "lowercase1!",
		"no digit":     "NoDigits!!",
		"no special":   "NoSpecial99",
		"blacklisted":  "Password1!",
	}
	for name, password := range cases {
		err := svc.ValidatePassword(password)
		require.Error(t, err, name)
		assert.Equal(t, http.StatusBadRequest, apperrors.Status(err), name)
	}
}

func newInviteService() *UserService {
	return &UserService{
		JWTService:  NewJWTService("test-secret"),
		MailBreaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "mail-test"}),
	}
}

func TestInviteUserMintsValidToken(t *testing.T) {
	svc := newInviteService()

	// Mail delivery fails in this environment; the token must come back anyway.
	token, err := svc.InviteUser(context.Background(), "novi@example.com", models.RoleEmployee)
	require.NoError(t, err)

	claims, err := svc.JWTService.ValidateToken(token, TokenInvite)
	require.NoError(t, err)
	assert.Equal(t, "novi@example.com", claims.Email)
	assert.Equal(t, models.RoleEmployee, claims.Role)
}

func TestInviteUserDefaultsToEmployeeRole(t *testing.T) {
	svc := newInviteService()

	token, err := svc.InviteUser(context.Background(), "novi@example.com", "")
	require.NoError(t, err)

	claims, err := svc.JWTService.ValidateToken(token, TokenInvite)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, claims.Role)
}

func TestInviteUserRejectsBadInput(t *testing.T) {
	svc := newInviteService()

	_, err := svc.InviteUser(context.Background(), "", models.RoleEmployee)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))

	_, err = svc.InviteUser(context.Background(), "novi@example.com", models.Role("superuser"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.Status(err))
}
