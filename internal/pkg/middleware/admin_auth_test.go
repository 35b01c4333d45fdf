package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthedApp() *fiber.App {
	app := fiber.New()
	app.Get("/admin/ping", AdminAuthMiddleware(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestAdminAuthAcceptsHeaderToken(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "s3cret")
	app := newAuthedApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-Admin-Token", "s3cret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminAuthAcceptsBearerToken(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "s3cret")
	app := newAuthedApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer s3cret")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminAuthRejectsWrongToken(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "s3cret")
	app := newAuthedApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-Admin-Token", "nope")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthRejectsMissingToken(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "s3cret")
	app := newAuthedApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/admin/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAuthUnconfiguredTokenIsUnavailable(t *testing.T) {
	t.Setenv("ADMIN_API_TOKEN", "")
	app := newAuthedApp()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("X-Admin-Token", "anything")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
