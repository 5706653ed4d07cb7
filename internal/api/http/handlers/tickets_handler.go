package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/encorebot/support-desk/internal/api/dto"
	"github.com/encorebot/support-desk/internal/auth"
	"github.com/encorebot/support-desk/internal/service"
	apperrors "github.com/encorebot/support-desk/pkg/util"
)

// TicketsHandler exposes ticket and response endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// List handles GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	user, _ := auth.UserFromContext(c)

	tickets, err := h.tickets.ListForUser(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": dto.NewTicketListResponse(tickets)})
}

// Get handles GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	user, _ := auth.UserFromContext(c)

	ticket, err := h.tickets.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// Create handles POST /api/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	user, _ := auth.UserFromContext(c)

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}

	ticket, err := h.tickets.Create(c.UserContext(), user, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Service:     req.Service,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// UpdateStatus handles PATCH /api/tickets/:id/status. Admin-only, enforced
// by route middleware.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	user, _ := auth.UserFromContext(c)

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}

	ticket, err := h.tickets.UpdateStatus(c.UserContext(), user, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": dto.NewTicketResponse(ticket)})
}

// ListResponses handles GET /api/tickets/:ticketId/responses.
func (h *TicketsHandler) ListResponses(c *fiber.Ctx) error {
	user, _ := auth.UserFromContext(c)

	responses, err := h.tickets.ListResponses(c.UserContext(), user, c.Params("ticketId"))
	if err != nil {
		return err
	}

	payload := make([]dto.ResponseResponse, 0, len(responses))
	for i := range responses {
		payload = append(payload, dto.NewResponseResponse(&responses[i]))
	}
	return c.JSON(fiber.Map{"responses": payload})
}

// CreateResponse handles POST /api/tickets/:ticketId/responses.
func (h *TicketsHandler) CreateResponse(c *fiber.Ctx) error {
	user, _ := auth.UserFromContext(c)

	var req dto.CreateResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}

	response, err := h.tickets.AddResponse(c.UserContext(), user, c.Params("ticketId"), req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"response": dto.NewResponseResponse(response)})
}
