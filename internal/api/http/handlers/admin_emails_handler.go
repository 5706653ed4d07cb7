package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/encorebot/support-desk/internal/api/dto"
	"github.com/encorebot/support-desk/internal/service"
	apperrors "github.com/encorebot/support-desk/pkg/util"
)

// AdminEmailsHandler exposes whitelist management. Every route is behind
// the admin gate.
type AdminEmailsHandler struct {
	admin *service.AdminService
}

// NewAdminEmailsHandler constructs handler.
func NewAdminEmailsHandler(adminService *service.AdminService) *AdminEmailsHandler {
	return &AdminEmailsHandler{admin: adminService}
}

// List handles GET /api/admin/emails.
func (h *AdminEmailsHandler) List(c *fiber.Ctx) error {
	entries, err := h.admin.List(c.UserContext())
	if err != nil {
		return err
	}

	payload := make([]dto.AdminEmailResponse, 0, len(entries))
	for i := range entries {
		payload = append(payload, dto.NewAdminEmailResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"emails": payload})
}

// Create handles POST /api/admin/emails.
func (h *AdminEmailsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAdminEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("Invalid email", nil)
	}

	entry, err := h.admin.Add(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"adminEmail": dto.NewAdminEmailResponse(entry)})
}

// Delete handles DELETE /api/admin/emails/:id.
func (h *AdminEmailsHandler) Delete(c *fiber.Ctx) error {
	if err := h.admin.Remove(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
