package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/registry"
)

func newTestApp(t *testing.T) (*fiber.App, *registry.Registry) {
	t.Helper()

	reg := registry.New(time.Minute)
	t.Cleanup(reg.Stop)

	cfg := &config.Config{}
	boardWS := NewBoardWSHandler(cfg, reg)
	api := NewRoomAPIHandler(reg, boardWS)

	app := fiber.New()
	app.Get("/health", api.Check)
	app.Get("/health/live", api.Liveness)
	app.Get("/health/ready", api.Readiness)
	app.Get("/api/rooms/:id", api.RoomExists)
	app.Post("/api/rooms", api.CreateRoomID)
	return app, reg
}

func TestHealthCheck(t *testing.T) {
	app, reg := newTestApp(t)
	_, isHost := reg.AddUser("room1", "u1", "alice")
	require.True(t, isHost)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 1, health.Checks["registry"].Rooms)
	assert.Equal(t, 1, health.Checks["registry"].Users)
	assert.Equal(t, "healthy", health.Checks["websocket"].Status)
}

func TestProbes(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	resp, err = app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "READY", string(body))
}

func TestRoomExists(t *testing.T) {
	app, reg := newTestApp(t)
	_, isHost := reg.AddUser("room1", "u1", "alice")
	require.True(t, isHost)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/rooms/room1", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "room1", body["roomId"])
	assert.Equal(t, true, body["exists"])
}

func TestRoomExists_Missing(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/rooms/nope", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["exists"])
}

func TestCreateRoomID(t *testing.T) {
	app, reg := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/rooms", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body["roomId"], 8)
	assert.NotContains(t, body["roomId"], "-")

	// Issuing an id does not create the room.
	_, exists := reg.GetRoom(body["roomId"])
	assert.False(t, exists)
}

func TestNewRoomID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRoomID()
		assert.Len(t, id, 8)
		assert.False(t, seen[id], "room ids must not repeat")
		seen[id] = true
	}
}

func TestSanitizeChatContent(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		maxLen  int
		want    string
		allowed bool
	}{
		{"plain", "hello", 500, "hello", true},
		{"trimmed", "  hi there  ", 500, "hi there", true},
		{"empty", "", 500, "", false},
		{"whitespace only", "   \t\n ", 500, "", false},
		{"capped", strings.Repeat("a", 600), 500, strings.Repeat("a", 500), true},
		{"multibyte capped by runes", strings.Repeat("한", 600), 500, strings.Repeat("한", 500), true},
		{"no cap", strings.Repeat("a", 600), 0, strings.Repeat("a", 600), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sanitizeChatContent(tt.in, tt.maxLen)
			assert.Equal(t, tt.allowed, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
