// auth_test.go - Tests for the auth and admin gates

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"envsense-backend/models"
	"envsense-backend/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, errors.New("record not found")
}

func setupGateRouter(tokens *token.Issuer, users UserLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := AuthMiddleware(tokens, users)
	r.GET("/me", auth, func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})
	r.GET("/admin", auth, AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/admin-only", AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.10:40000"
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := token.NewIssuer("secret", time.Hour)
	users := fakeUsers{
		"u1": {ID: "u1", Role: models.RoleUser},
		"a1": {ID: "a1", Role: models.RoleAdmin},
	}
	r := setupGateRouter(tokens, users)

	userTok, _ := tokens.Issue("u1")
	adminTok, _ := tokens.Issue("a1")
	ghostTok, _ := tokens.Issue("deleted")
	foreignTok, _ := token.NewIssuer("other", time.Hour).Issue("u1")

	w := do(r, "/me", "Bearer "+userTok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1"}`, w.Body.String())

	// every failure is the same uniform 401
	for name, header := range map[string]string{
		"missing":       "",
		"wrong scheme":  "Basic " + userTok,
		"malformed":     "Bearer nope",
		"bad signature": "Bearer " + foreignTok,
		"unknown user":  "Bearer " + ghostTok,
	} {
		w := do(r, "/me", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.JSONEq(t, `{"message":"Not authorized"}`, w.Body.String(), name)
	}

	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer "+adminTok).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+userTok).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/admin", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin-only", "").Code)
}

func TestRateLimitByIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/login", RateLimitByIP(2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "/login", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/login", "").Code)
	w := do(r, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"message":"Too many requests"}`, w.Body.String())
}

func TestRecoveryHidesStackInProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, expose := range []bool{true, false} {
		r := gin.New()
		r.Use(Recovery(expose))
		r.GET("/boom", func(*gin.Context) { panic("boom") })

		w := do(r, "/boom", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		if expose {
			assert.Contains(t, w.Body.String(), `"stack"`)
		} else {
			assert.JSONEq(t, `{"error":"Server error"}`, w.Body.String())
		}
	}
}
