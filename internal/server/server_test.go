package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"thoughtwave/internal/config"
	"thoughtwave/internal/models"
	"thoughtwave/internal/notifications"
	"thoughtwave/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	cfg := &config.Config{Port: "0", Env: "test", AllowedOrigins: "*"}
	s := NewServerWithDeps(cfg, testutil.NewSQLiteStore(t), nil)
	return s, s.NewApp()
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type userJSON struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Thoughts    []string `json:"thoughts"`
	Friends     []string `json:"friends"`
	FriendCount int      `json:"friendCount"`
}

type thoughtJSON struct {
	ID            string `json:"id"`
	ThoughtText   string `json:"thoughtText"`
	Username      string `json:"username"`
	UserID        string `json:"userId"`
	ReactionCount int    `json:"reactionCount"`
	Reactions     []struct {
		ReactionID   string `json:"reactionId"`
		ReactionBody string `json:"reactionBody"`
		Username     string `json:"username"`
	} `json:"reactions"`
}

type profileJSON struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Thoughts    []thoughtJSON `json:"thoughts"`
	Friends     []userJSON    `json:"friends"`
	FriendCount int           `json:"friendCount"`
}

func createUser(t *testing.T, app *fiber.App, name string) userJSON {
	t.Helper()
	status, body := doRequest(t, app, http.MethodPost, "/users", map[string]string{
		"username": name,
		"email":    name + "@example.test",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[userJSON](t, body)
}

func createThought(t *testing.T, app *fiber.App, userID, text string) thoughtJSON {
	t.Helper()
	status, body := doRequest(t, app, http.MethodPost, "/thoughts", map[string]string{
		"thoughtText": text,
		"userId":      userID,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[thoughtJSON](t, body)
}

func TestHealthChecks(t *testing.T) {
	_, app := newTestApp(t)

	status, _ := doRequest(t, app, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := doRequest(t, app, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	ready := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", ready["status"])
	assert.Equal(t, config.DriverSQLite, ready["driver"])
	assert.Equal(t, "disabled", ready["checks"].(map[string]any)["redis"])
}

func TestUnknownRoute(t *testing.T) {
	_, app := newTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	errBody := decode[models.ErrorResponse](t, body)
	assert.Equal(t, "Route not found", errBody.Message)
}

func TestEventStreamRequiresUpgrade(t *testing.T) {
	_, app := newTestApp(t)
	u := createUser(t, app, "ada")

	status, _ := doRequest(t, app, http.MethodGet, "/ws/users/"+u.ID, nil)
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	cfg := &config.Config{Port: "0", Env: "test", FeatureFlags: "event_stream=on,beta=0%"}
	app := NewServerWithDeps(cfg, testutil.NewSQLiteStore(t), nil).NewApp()

	status, body := doRequest(t, app, http.MethodGet, "/feature-flags?userId=abc", nil)
	require.Equal(t, http.StatusOK, status)
	flags := decode[map[string]map[string]any](t, body)
	assert.Equal(t, true, flags["event_stream"]["enabled"])
	assert.Equal(t, false, flags["beta"]["enabled"])
}

func TestEventStreamGatedByFeatureFlag(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{Port: "0", Env: "test", FeatureFlags: "event_stream=off"}
	app := NewServerWithDeps(cfg, testutil.NewSQLiteStore(t), rdb).NewApp()
	u := createUser(t, app, "ada")

	req := httptest.NewRequest(http.MethodGet, "/ws/users/"+u.ID, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEventStreamRejectionFrameIsJSON(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewServerWithDeps(&config.Config{Port: "0", Env: "test"}, testutil.NewSQLiteStore(t), rdb)
	app := s.NewApp()
	u := createUser(t, app, "ada")
	require.NoError(t, s.hub.Shutdown(context.Background()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := gorillaws.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/users/"+u.ID, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	var frame map[string]string
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, notifications.ErrHubClosed.Error(), frame["error"])
}

func TestMapServiceError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, mapServiceError(models.NewValidationError("bad")))
	assert.Equal(t, http.StatusNotFound, mapServiceError(models.NewNotFoundError("User")))
	assert.Equal(t, http.StatusInternalServerError, mapServiceError(models.NewInternalError(assert.AnError)))
	assert.Equal(t, http.StatusInternalServerError, mapServiceError(assert.AnError))
}
