// helpers_test.go - Shared fixtures for handler tests

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"envsense-backend/auditlog"
	"envsense-backend/config"
	"envsense-backend/database"
	"envsense-backend/models"
	"envsense-backend/mqtt"
	"envsense-backend/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []mqtt.Event
}

func (p *recordingPublisher) Publish(ev mqtt.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) Events() []mqtt.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mqtt.Event(nil), p.events...)
}

type testEnv struct {
	t         *testing.T
	cfg       *config.Config
	db        *gorm.DB
	handler   *Handler
	router    *gin.Engine
	publisher *recordingPublisher
}

// setupTestEnv creates a fresh database, audit log and upload dir per test
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	cfg := &config.Config{
		JWTSecret:      "test-secret",
		Mode:           config.ModeDevelopment,
		TokenTTL:       time.Hour,
		AuditLogPath:   filepath.Join(dir, "logs", "requests.log"),
		UploadDir:      filepath.Join(dir, "uploads"),
		MaxUploadBytes: 1 << 20,
		AuthRateLimit:  1000,
	}
	db, err := database.Connect(filepath.Join(dir, "test.db"))
	require.NoError(t, err)

	audit := auditlog.New(cfg.AuditLogPath, 64)
	t.Cleanup(func() { _ = audit.Close() })

	pub := &recordingPublisher{}
	h := New(cfg, store.New(db), audit, pub)
	return &testEnv{t: t, cfg: cfg, db: db, handler: h, router: NewRouter(h), publisher: pub}
}

// createUser stores a user with the given role and returns a bearer token for it
func (e *testEnv) createUser(email, role string) (*models.User, string) {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(e.t, err)

	user := &models.User{Name: email, Email: email, Password: string(hash), Role: role}
	require.NoError(e.t, e.handler.Users.Create(context.Background(), user))

	tok, err := e.handler.Tokens.Issue(user.ID)
	require.NoError(e.t, err)
	return user, tok
}

func (e *testEnv) request(method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	e.t.Helper()
	req, err := http.NewRequest(method, path, body)
	require.NoError(e.t, err)
	req.RemoteAddr = "192.0.2.10:40000"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) jsonRequest(method, path string, payload any, tok string) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(e.t, err)
		body = bytes.NewReader(raw)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if tok != "" {
		headers["Authorization"] = "Bearer " + tok
	}
	return e.request(method, path, body, headers)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
