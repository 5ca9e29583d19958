package middleware

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"leadcore/store"
	"leadcore/utils"
)

// Locals keys set by the gate for downstream handlers.
const (
	LocalCredential = "credential"
	LocalClientIP   = "client_ip"
)

// APIKeyGate resolves the X-API-Key header to an ingestion credential
// and enforces its IP allowlist. Unknown or inactive keys get 401; a
// valid key calling from outside a non-empty allowlist gets 403, kept
// distinct so operators can tell a misconfigured proxy from a bad key.
func APIKeyGate(creds store.CredentialStore, logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-API-Key")
		if key == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "API key required", nil)
		}

		cred, err := creds.FindByAPIKey(key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid API key", nil)
			}
			logger.Printf("credential lookup failed: %v", err)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Credential lookup failed", nil)
		}
		if !cred.IsActive {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid API key", nil)
		}

		clientIP := utils.ClientIP(c)
		if !cred.IPAllowed(clientIP) {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "IP address not whitelisted", nil)
		}

		if err := creds.TouchLastUsed(cred.ID, time.Now()); err != nil {
			logger.Printf("failed to touch credential %d last_used: %v", cred.ID, err)
		}

		c.Locals(LocalCredential, cred)
		c.Locals(LocalClientIP, clientIP)
		return c.Next()
	}
}
