package dto

import (
	"time"

	"github.com/encorebot/support-desk/internal/domain"
	"github.com/encorebot/support-desk/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Service     string `json:"service"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreateResponseRequest payload.
type CreateResponseRequest struct {
	Message string `json:"message"`
}

// CreateAdminEmailRequest payload.
type CreateAdminEmailRequest struct {
	Email string `json:"email"`
}

// TicketResponse is the ticket wire shape. ResponseCount is present only on
// list endpoints.
type TicketResponse struct {
	ID            string              `json:"id"`
	UserID        string              `json:"userId"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Service       string              `json:"service"`
	Status        domain.TicketStatus `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
	ResponseCount *int                `json:"responseCount,omitempty"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		UserID:      ticket.UserID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Category:    ticket.Category,
		Service:     ticket.Service,
		Status:      ticket.Status,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketListResponse maps tickets enriched with response counts.
func NewTicketListResponse(tickets []service.TicketWithCount) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		item := NewTicketResponse(&tickets[i].Ticket)
		count := tickets[i].ResponseCount
		item.ResponseCount = &count
		result = append(result, item)
	}
	return result
}

// ResponseResponse is the thread-message wire shape.
type ResponseResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	IsStaff   bool      `json:"isStaff"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewResponseResponse maps a domain response.
func NewResponseResponse(response *domain.Response) ResponseResponse {
	return ResponseResponse{
		ID:        response.ID,
		TicketID:  response.TicketID,
		UserID:    response.UserID,
		Message:   response.Message,
		IsStaff:   response.IsStaff,
		CreatedAt: response.CreatedAt,
	}
}

// AdminEmailResponse is the whitelist-entry wire shape.
type AdminEmailResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAdminEmailResponse maps a whitelist entry.
func NewAdminEmailResponse(entry *domain.AdminEmail) AdminEmailResponse {
	return AdminEmailResponse{ID: entry.ID, Email: entry.Email, CreatedAt: entry.CreatedAt}
}
