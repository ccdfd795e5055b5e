package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskflow-project/backend/models"
	"taskflow-project/backend/services"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJWTAuthMiddlewareMissingHeader(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")
	handler := JWTAuthMiddleware(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Authorization header missing", decodeEnvelope(t, rec)["message"])
}

func TestJWTAuthMiddlewareInvalidToken(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")
	handler := JWTAuthMiddleware(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Invalid token", decodeEnvelope(t, rec)["message"])
}

func TestJWTAuthMiddlewareRejectsNonAccessToken(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")
	user := &models.User{ID: primitive.NewObjectID(), Email: "ana@example.com", Role: models.RoleEmployee}
	refresh, err := jwtService.GenerateRefreshToken(user)
	require.NoError(t, err)

	handler := JWTAuthMiddleware(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("a refresh token must not authenticate a request")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthMiddlewarePlacesActorInContext(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")
	user := &models.User{ID: primitive.NewObjectID(), Email: "ana@example.com", Role: models.RoleAdmin}
	token, err := jwtService.GenerateAccessToken(user)
	require.NoError(t, err)

	called := false
	handler := JWTAuthMiddleware(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, user.ID, actor.ID)
		assert.Equal(t, models.RoleAdmin, actor.Role)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}
