package middleware

import (
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcore/models"
	"leadcore/store"
)

func gateApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	app := fiber.New()
	app.Use(APIKeyGate(st, log.New(os.Stdout, "GATE-TEST: ", log.LstdFlags)))
	app.Get("/", func(c *fiber.Ctx) error {
		cred := c.Locals(LocalCredential).(*models.IngestionCredential)
		return c.JSON(fiber.Map{"tenant_id": cred.TenantID, "ip": c.Locals(LocalClientIP)})
	})
	return app, st
}

func activeCredential(key, allowedIPs string) *models.IngestionCredential {
	cred := &models.IngestionCredential{
		TenantID:   7,
		Provider:   "acme-leads",
		Key:        key,
		IsActive:   true,
		AllowedIPs: allowedIPs,
	}
	cred.ID = 1
	return cred
}

func TestGateRejectsMissingKey(t *testing.T) {
	app, _ := gateApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGateRejectsUnknownKey(t *testing.T) {
	app, _ := gateApp(t)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "nope")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGateRejectsInactiveKey(t *testing.T) {
	app, st := gateApp(t)
	cred := activeCredential("k-inactive", "")
	cred.IsActive = false
	st.AddCredential(cred)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "k-inactive")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGateAllowsEmptyAllowlistFromAnyIP(t *testing.T) {
	app, st := gateApp(t)
	st.AddCredential(activeCredential("k-open", ""))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "k-open")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateForbidsIPOutsideAllowlist(t *testing.T) {
	app, st := gateApp(t)
	st.AddCredential(activeCredential("k-locked", "10.1.2.3, 10.1.2.4"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "k-locked")
	req.Header.Set("X-Forwarded-For", "192.168.0.9, 10.0.0.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	// distinct from 401 so operators can tell a bad key from a bad proxy
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestGateAllowsForwardedForFirstHop(t *testing.T) {
	app, st := gateApp(t)
	st.AddCredential(activeCredential("k-locked", "10.1.2.3"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "k-locked")
	req.Header.Set("X-Forwarded-For", "10.1.2.3, 172.16.0.1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateAllowsRealIPFallback(t *testing.T) {
	app, st := gateApp(t)
	st.AddCredential(activeCredential("k-locked", "10.1.2.3"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "k-locked")
	req.Header.Set("X-Real-IP", "10.1.2.3")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGateFailsClosedWhenHeadersStripped(t *testing.T) {
	app, st := gateApp(t)
	st.AddCredential(activeCredential("k-locked", "10.1.2.3"))

	// no forwarding headers at all: IP resolves to "unknown", which can
	// never match an allowlist entry
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "k-locked")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
