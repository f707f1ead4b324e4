// user_test.go - Automated tests for registration, login, token lookup and admin promotion
// Run with: go test ./...

package handlers

import (
	"net/http"
	"testing"

	"envsense-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegisterAndLogin tests user registration and login
func TestRegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	// --- Test registration ---
	reg := RegisterInput{Name: "Tester", Email: "test@example.com", Password: "testpass"}
	w := env.jsonRequest(http.MethodPost, "/api/auth/register", reg, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	regToken := decode[map[string]string](t, w)["token"]
	assert.NotEmpty(t, regToken)

	// --- Same email again ---
	w = env.jsonRequest(http.MethodPost, "/api/auth/register", reg, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, w.Body.String())

	// --- Test login ---
	w = env.jsonRequest(http.MethodPost, "/api/auth/login", LoginInput{Email: "test@example.com", Password: "testpass"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[map[string]any](t, w)
	assert.NotEmpty(t, login["token"])
	user := login["user"].(map[string]any)
	assert.Equal(t, "test@example.com", user["email"])
	assert.Equal(t, models.RoleUser, user["role"])
	assert.NotContains(t, user, "password") // Hash never leaves the server

	// --- Test login with wrong password or unknown email ---
	w = env.jsonRequest(http.MethodPost, "/api/auth/login", LoginInput{Email: "test@example.com", Password: "wrongpass"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.jsonRequest(http.MethodPost, "/api/auth/login", LoginInput{Email: "nobody@example.com", Password: "testpass"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, w.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{"email": "not-an-email", "password": "testpass"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["message"], "Email")

	w = env.jsonRequest(http.MethodPost, "/api/auth/register", map[string]string{"email": "a@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserByToken(t *testing.T) {
	env := setupTestEnv(t)
	user, tok := env.createUser("me@example.com", models.RoleUser)

	w := env.jsonRequest(http.MethodGet, "/api/auth/user", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, tok, body["token"])
	assert.Equal(t, user.ID, body["user"].(map[string]any)["id"])

	w = env.jsonRequest(http.MethodGet, "/api/auth/user", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	w = env.jsonRequest(http.MethodGet, "/api/auth/user", nil, "garbage")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestMakeAdmin(t *testing.T) {
	env := setupTestEnv(t)
	_, adminTok := env.createUser("admin@test.com", models.RoleAdmin)
	regular, regularTok := env.createUser("user@test.com", models.RoleUser)
	other, _ := env.createUser("other@test.com", models.RoleUser)

	// Regular users cannot promote anyone
	w := env.jsonRequest(http.MethodPatch, "/api/data/make-admin/"+other.ID, nil, regularTok)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Admin access required"}`, w.Body.String())

	w = env.jsonRequest(http.MethodPatch, "/api/data/make-admin/"+regular.ID, nil, adminTok)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "User promoted to admin", body["message"])
	assert.Equal(t, models.RoleAdmin, body["user"].(map[string]any)["role"])

	// The promoted user now passes the admin gate
	w = env.jsonRequest(http.MethodPatch, "/api/data/make-admin/"+other.ID, nil, regularTok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.jsonRequest(http.MethodPatch, "/api/data/make-admin/missing-id", nil, adminTok)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
