package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("USERS_FILE", filepath.Join(t.TempDir(), "users.json"))

	runtime, err := Build(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = runtime.Close() })
	return runtime
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func TestServer_RegisterLoginSaveScenario(t *testing.T) {
	runtime := buildTestRuntime(t)
	h := runtime.Handler

	status, _ := doJSON(t, h, http.MethodPost, "/register", "", `{"username":"alice","password":"pw123"}`)
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, h, http.MethodPost, "/register", "", `{"username":"alice","password":"other"}`)
	require.Equal(t, http.StatusConflict, status)

	status, _ = doJSON(t, h, http.MethodPost, "/login", "", `{"username":"alice","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := doJSON(t, h, http.MethodPost, "/login", "", `{"username":"alice","password":"pw123"}`)
	require.Equal(t, http.StatusOK, status)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	player, ok := body["player_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", player["username"])
	assert.EqualValues(t, 1, player["level"])
	assert.EqualValues(t, 10, player["force"])
	assert.EqualValues(t, 0, player["coins"])
	assert.Equal(t, "small", player["stone_type"])

	status, _ = doJSON(t, h, http.MethodPost, "/save", token,
		`{"level":2,"force":11,"coins":5,"stone_type":"medium"}`)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, h, http.MethodPost, "/login", "", `{"username":"alice","password":"pw123"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, token, body["token"], "token must not rotate on login")

	player = body["player_data"].(map[string]any)
	assert.EqualValues(t, 2, player["level"])
	assert.EqualValues(t, 11, player["force"])
	assert.EqualValues(t, 5, player["coins"])
	assert.Equal(t, "medium", player["stone_type"])
}

func TestServer_RegisterValidation(t *testing.T) {
	runtime := buildTestRuntime(t)

	status, body := doJSON(t, runtime.Handler, http.MethodPost, "/register", "", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "username and password are required", body["message"])
}

func TestServer_SaveRequiresToken(t *testing.T) {
	runtime := buildTestRuntime(t)

	status, _ := doJSON(t, runtime.Handler, http.MethodPost, "/save", "", `{"level":2}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, runtime.Handler, http.MethodPost, "/save", "not-a-real-token", `{"level":2}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_SaveWithPartialPayloadErasesFields(t *testing.T) {
	runtime := buildTestRuntime(t)
	h := runtime.Handler

	status, _ := doJSON(t, h, http.MethodPost, "/register", "", `{"username":"bob","password":"pw"}`)
	require.Equal(t, http.StatusCreated, status)
	status, body := doJSON(t, h, http.MethodPost, "/login", "", `{"username":"bob","password":"pw"}`)
	require.Equal(t, http.StatusOK, status)
	token := body["token"].(string)

	status, _ = doJSON(t, h, http.MethodPost, "/save", token, `{"level":9}`)
	require.Equal(t, http.StatusOK, status)

	_, body = doJSON(t, h, http.MethodPost, "/login", "", `{"username":"bob","password":"pw"}`)
	player := body["player_data"].(map[string]any)
	assert.EqualValues(t, 9, player["level"])
	assert.Nil(t, player["force"])
	assert.Nil(t, player["coins"])
	assert.Nil(t, player["stone_type"])
}

func TestServer_StatusAndHealth(t *testing.T) {
	runtime := buildTestRuntime(t)

	status, body := doJSON(t, runtime.Handler, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Thrower-X server is online", body["status"])

	status, body = doJSON(t, runtime.Handler, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_CORSPreflight(t *testing.T) {
	runtime := buildTestRuntime(t)

	req := httptest.NewRequest(http.MethodOptions, "/save", nil)
	req.Header.Set("Origin", "https://game.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	runtime.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestServer_RequestIDHeader(t *testing.T) {
	runtime := buildTestRuntime(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	runtime.Handler.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
