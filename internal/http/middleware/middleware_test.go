package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docfiling/internal/service/mocks"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		rid := c.Locals(RequestIDLocalKey)
		return c.SendString(rid.(string))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		// Check if it's readable in handler (from response body)
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	// Verify log output
	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	assert.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestLogger_RecordsErrorStatusAndUser(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	roster := new(mocks.MockAdminService)
	roster.On("IsAdmin", mock.Anything, "alice").Return(false, nil)

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Logger(log))
	app.Use(Actor("X-User-Name", roster))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set("X-User-Name", "alice")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "http_request", entry.Message)
	assert.Equal(t, fiber.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "alice", entry.Data["user"])
}

func TestActor(t *testing.T) {
	roster := new(mocks.MockAdminService)
	roster.On("IsAdmin", mock.Anything, "root").Return(true, nil)
	roster.On("IsAdmin", mock.Anything, "alice").Return(false, nil)
	roster.On("IsAdmin", mock.Anything, "broken").Return(false, errors.New("db down"))

	app := fiber.New()
	app.Use(Actor("X-User-Name", roster))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		a, _ := ActorFrom(c)
		return c.JSON(a)
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	do := func(path, user string) (int, []byte) {
		req := httptest.NewRequest("GET", path, nil)
		if user != "" {
			req.Header.Set("X-User-Name", user)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return resp.StatusCode, buf.Bytes()
	}

	t.Run("missing header", func(t *testing.T) {
		status, _ := do("/whoami", "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("resolves role", func(t *testing.T) {
		status, body := do("/whoami", " root ")
		assert.Equal(t, fiber.StatusOK, status)
		var a map[string]any
		require.NoError(t, json.Unmarshal(body, &a))
		assert.Equal(t, "root", a["username"])
		assert.Equal(t, true, a["is_admin"])
	})

	t.Run("roster failure", func(t *testing.T) {
		status, _ := do("/whoami", "broken")
		assert.Equal(t, fiber.StatusInternalServerError, status)
	})

	t.Run("admin guard", func(t *testing.T) {
		status, _ := do("/admin", "alice")
		assert.Equal(t, fiber.StatusForbidden, status)

		status, _ = do("/admin", "root")
		assert.Equal(t, fiber.StatusNoContent, status)
	})
}

type recordingRoster struct {
	seen []string
}

func (r *recordingRoster) IsAdmin(_ context.Context, username string) (bool, error) {
	r.seen = append(r.seen, username)
	return false, nil
}

func TestActor_UsernameOutlivesRequest(t *testing.T) {
	roster := &recordingRoster{}
	var actors []string

	app := fiber.New()
	app.Use(Actor("X-User-Name", roster))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		a, _ := ActorFrom(c)
		actors = append(actors, a.Username)
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, user := range []string{"alice", "bobby"} {
		req := httptest.NewRequest("GET", "/whoami", nil)
		req.Header.Set("X-User-Name", user)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	assert.Equal(t, []string{"alice", "bobby"}, roster.seen)
	assert.Equal(t, []string{"alice", "bobby"}, actors)
}
