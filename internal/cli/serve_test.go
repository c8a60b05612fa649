package cli

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kontaktio/kontakt/internal/config"
)

func stubPingDatabase(t *testing.T, fn func() error) {
	t.Helper()
	original := pingDatabase
	pingDatabase = fn
	t.Cleanup(func() {
		pingDatabase = original
	})
}

func testRequest(t *testing.T, app *fiber.App, method, target string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	return resp
}

func TestHandleHealthPayload(t *testing.T) {
	app := fiber.New()
	app.Get("/health", handleHealth)

	resp := testRequest(t, app, http.MethodGet, "/health")
	defer func() { _ = resp.Body.Close() }()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, "kontakt", payload["service"])
}

func TestHandleUpReturnsOKWhenDatabaseHealthy(t *testing.T) {
	stubPingDatabase(t, func() error {
		return nil
	})

	app := fiber.New()
	app.Get("/up", handleUp)

	resp := testRequest(t, app, http.MethodGet, "/up")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleUpReturnsServiceUnavailableWhenPingFails(t *testing.T) {
	stubPingDatabase(t, func() error {
		return errors.New("boom")
	})

	app := fiber.New()
	app.Get("/up", handleUp)

	resp := testRequest(t, app, http.MethodGet, "/up")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandleVersionReturnsCurrentVersion(t *testing.T) {
	originalVersion := Version
	Version = "1.2.3"
	t.Cleanup(func() {
		Version = originalVersion
	})

	app := fiber.New()
	app.Get("/api/version", handleVersion)

	resp := testRequest(t, app, http.MethodGet, "/api/version")
	defer func() { _ = resp.Body.Close() }()

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "1.2.3", payload["version"])
}

func TestCorsOriginsExpandsSchemes(t *testing.T) {
	origins := corsOrigins([]string{"localhost", "app.example.com"})

	assert.Equal(t, []string{
		"http://localhost", "https://localhost",
		"http://app.example.com", "https://app.example.com",
	}, origins)
}

func TestBuildAppSetsVersionHeader(t *testing.T) {
	originalVersion := Version
	Version = "9.9.9"
	t.Cleanup(func() {
		Version = originalVersion
	})

	cfg := &config.Config{Port: "3000", TrustedOrigins: []string{"localhost"}}
	app := buildApp(cfg, nil)

	resp := testRequest(t, app, http.MethodGet, "/health")
	assert.Equal(t, "9.9.9", resp.Header.Get("X-Kontakt-Version"))
}

func TestBuildAppRejectsPlainRequestToLiveFeed(t *testing.T) {
	cfg := &config.Config{Port: "3000", TrustedOrigins: []string{"localhost"}}
	app := buildApp(cfg, nil)

	// Without a hub the live feed route is not registered at all.
	resp := testRequest(t, app, http.MethodGet, "/api/live")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
