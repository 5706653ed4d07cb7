package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/encorebot/support-desk/internal/storage"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store storage.Store
}

// NewHealthHandler constructs handler.
func NewHealthHandler(store storage.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Live always reports the process as up.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready checks storage reachability.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if err := h.store.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
