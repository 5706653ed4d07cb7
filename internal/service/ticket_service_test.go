package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorebot/support-desk/internal/domain"
	"github.com/encorebot/support-desk/internal/events"
	"github.com/encorebot/support-desk/internal/service"
	"github.com/encorebot/support-desk/internal/storage"
)

func newTicketService(t *testing.T) (*service.TicketService, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	return service.NewTicketService(store, events.NewInMemoryDispatcher()), store
}

func seedUser(t *testing.T, store storage.Store, email string, admin bool) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, PasswordHash: "x", FullName: email, IsAdmin: admin, EmailVerified: true}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestTicketCreateAlwaysStartsOpen(t *testing.T) {
	svc, store := newTicketService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "owner@example.com", false)

	ticket, err := svc.Create(ctx, owner, service.TicketCreateInput{
		Title:       "Cannot log in",
		Description: "Password reset loops",
		Category:    "account",
		Service:     "web",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, owner.ID, ticket.UserID)

	_, err = svc.Create(ctx, owner, service.TicketCreateInput{Title: "x"})
	assert.EqualError(t, err, "title, description, category and service are required")
}

func TestTicketVisibility(t *testing.T) {
	svc, store := newTicketService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "owner@example.com", false)
	other := seedUser(t, store, "other@example.com", false)
	admin := seedUser(t, store, "admin@example.com", true)

	mine, err := svc.Create(ctx, owner, service.TicketCreateInput{Title: "t1", Description: "d", Category: "c", Service: "s"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, service.TicketCreateInput{Title: "t2", Description: "d", Category: "c", Service: "s"})
	require.NoError(t, err)

	ownerList, err := svc.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, ownerList, 1)
	assert.Equal(t, mine.ID, ownerList[0].ID)

	adminList, err := svc.ListForUser(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, adminList, 2)

	// owner and admin can read; strangers cannot
	_, err = svc.Get(ctx, owner, mine.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, admin, mine.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, other, mine.ID)
	assert.EqualError(t, err, "Not authorized")

	_, err = svc.Get(ctx, owner, "00000000-0000-0000-0000-000000000000")
	assert.EqualError(t, err, "Ticket not found")
}

func TestTicketStatusUpdate(t *testing.T) {
	svc, store := newTicketService(t)
	ctx := context.Background()
	admin := seedUser(t, store, "admin@example.com", true)

	ticket, err := svc.Create(ctx, admin, service.TicketCreateInput{Title: "t", Description: "d", Category: "c", Service: "s"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)

	// any member of the status set may follow any other
	updated, err = svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)

	_, err = svc.UpdateStatus(ctx, admin, ticket.ID, domain.TicketStatus("escalated"))
	assert.EqualError(t, err, "Invalid status")

	_, err = svc.UpdateStatus(ctx, admin, "00000000-0000-0000-0000-000000000000", domain.TicketStatusClosed)
	assert.EqualError(t, err, "Ticket not found")
}

func TestTicketResponses(t *testing.T) {
	svc, store := newTicketService(t)
	ctx := context.Background()
	owner := seedUser(t, store, "owner@example.com", false)
	other := seedUser(t, store, "other@example.com", false)
	admin := seedUser(t, store, "admin@example.com", true)

	ticket, err := svc.Create(ctx, owner, service.TicketCreateInput{Title: "t", Description: "d", Category: "c", Service: "s"})
	require.NoError(t, err)

	first, err := svc.AddResponse(ctx, owner, ticket.ID, "any update?")
	require.NoError(t, err)
	assert.False(t, first.IsStaff)

	second, err := svc.AddResponse(ctx, admin, ticket.ID, "looking into it")
	require.NoError(t, err)
	assert.True(t, second.IsStaff)

	_, err = svc.AddResponse(ctx, other, ticket.ID, "me too")
	assert.EqualError(t, err, "Not authorized")
	_, err = svc.AddResponse(ctx, owner, ticket.ID, "   ")
	assert.EqualError(t, err, "message is required")

	thread, err := svc.ListResponses(ctx, owner, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "any update?", thread[0].Message)
	assert.Equal(t, "looking into it", thread[1].Message)

	_, err = svc.ListResponses(ctx, other, ticket.ID)
	assert.EqualError(t, err, "Not authorized")

	list, err := svc.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ResponseCount)
}

func TestResponseStaffFlagIsSnapshot(t *testing.T) {
	svc, store := newTicketService(t)
	ctx := context.Background()
	admin := seedUser(t, store, "admin@example.com", true)

	ticket, err := svc.Create(ctx, admin, service.TicketCreateInput{Title: "t", Description: "d", Category: "c", Service: "s"})
	require.NoError(t, err)
	response, err := svc.AddResponse(ctx, admin, ticket.ID, "staff reply")
	require.NoError(t, err)
	require.True(t, response.IsStaff)

	// the stored flag does not track later changes to the author
	admin.IsAdmin = false
	thread, err := svc.ListResponses(ctx, &domain.User{ID: admin.ID, IsAdmin: true}, ticket.ID)
	require.NoError(t, err)
	assert.True(t, thread[0].IsStaff)
}
