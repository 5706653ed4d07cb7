package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/encorebot/support-desk/internal/domain"
	"github.com/encorebot/support-desk/internal/events"
	"github.com/encorebot/support-desk/internal/storage"
	apperrors "github.com/encorebot/support-desk/pkg/util"
)

// TicketService coordinates ticket and response workflows.
type TicketService struct {
	store      storage.Store
	dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(store storage.Store, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{store: store, dispatcher: dispatcher}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    string
	Service     string
}

// TicketWithCount pairs a ticket with the number of responses in its thread.
type TicketWithCount struct {
	domain.Ticket
	ResponseCount int
}

// ListForUser returns tickets visible to the caller, newest first. Admins
// see every ticket; everyone else sees only their own.
func (s *TicketService) ListForUser(ctx context.Context, user *domain.User) ([]TicketWithCount, error) {
	var (
		tickets []domain.Ticket
		err     error
	)
	if user.IsAdmin {
		tickets, err = s.store.ListTickets(ctx)
	} else {
		tickets, err = s.store.ListTicketsByUser(ctx, user.ID)
	}
	if err != nil {
		return nil, err
	}

	result := make([]TicketWithCount, 0, len(tickets))
	for _, ticket := range tickets {
		count, err := s.store.CountResponsesByTicket(ctx, ticket.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, TicketWithCount{Ticket: ticket, ResponseCount: count})
	}
	return result, nil
}

// Get fetches a ticket, enforcing the owner-or-admin rule.
func (s *TicketService) Get(ctx context.Context, user *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFound("Ticket", nil)
		}
		return nil, err
	}
	if !user.CanAccessTicket(ticket) {
		return nil, apperrors.NewForbidden("Not authorized")
	}
	return ticket, nil
}

// Create opens a new ticket owned by the caller. Tickets always start open
// regardless of client input.
func (s *TicketService) Create(ctx context.Context, user *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Title == "" || input.Description == "" || input.Category == "" || input.Service == "" {
		return nil, apperrors.NewValidationError("title, description, category and service are required", nil)
	}

	ticket := &domain.Ticket{
		UserID:      user.ID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Service:     input.Service,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTicketCreated,
		ActorID: user.ID,
		Payload: events.TicketCreatedPayload{
			TicketID: ticket.ID,
			Category: ticket.Category,
			Service:  ticket.Service,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// UpdateStatus sets a ticket's status. Any status may follow any other;
// only membership in the status set is checked. The admin gate lives at the
// route layer.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(status) {
		return nil, apperrors.NewValidationError("Invalid status", nil)
	}

	current, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFound("Ticket", nil)
		}
		return nil, err
	}

	ticket, err := s.store.UpdateTicketStatus(ctx, ticketID, status)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewNotFound("Ticket", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTicketStatusChanged,
		ActorID: actor.ID,
		Payload: events.TicketStatusChangedPayload{
			TicketID:  ticket.ID,
			OldStatus: current.Status,
			NewStatus: ticket.Status,
		},
	})
	return ticket, nil
}

// ListResponses returns a ticket's thread oldest first, enforcing the
// owner-or-admin rule.
func (s *TicketService) ListResponses(ctx context.Context, user *domain.User, ticketID string) ([]domain.Response, error) {
	if _, err := s.Get(ctx, user, ticketID); err != nil {
		return nil, err
	}
	return s.store.ListResponsesByTicket(ctx, ticketID)
}

// AddResponse appends a message to a ticket's thread. The staff flag is a
// snapshot of the author's admin status at creation time.
func (s *TicketService) AddResponse(ctx context.Context, user *domain.User, ticketID, message string) (*domain.Response, error) {
	if _, err := s.Get(ctx, user, ticketID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}

	response := &domain.Response{
		TicketID: ticketID,
		UserID:   user.ID,
		Message:  message,
		IsStaff:  user.IsAdmin,
	}
	if err := s.store.CreateResponse(ctx, response); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventResponseAdded,
		ActorID: user.ID,
		Payload: events.ResponseAddedPayload{
			TicketID:   ticketID,
			ResponseID: response.ID,
			IsStaff:    response.IsStaff,
		},
	})
	return response, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
