package storage

import (
	"context"
	"errors"
	"time"

	"github.com/encorebot/support-desk/internal/domain"
)

// Sentinel errors shared by all backends. Callers branch on these rather
// than on backend-specific errors.
var (
	ErrNotFound  = errors.New("storage: not found")
	ErrDuplicate = errors.New("storage: duplicate")
)

// Store is the uniform persistence contract. Three interchangeable backends
// implement it: an in-memory map, a Redis document store, and Postgres.
// Backends perform no business validation; given identical operation
// sequences they must produce identical observable results.
type Store interface {
	// Users.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error

	// SetVerificationToken stores a fresh verification token and expiry on
	// the user, replacing any previous one.
	SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) error

	// VerifyEmail marks the user holding a matching, non-expired
	// verification token as verified and clears the token. The token is
	// consumed exactly once; a second call returns ErrNotFound.
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)

	// GetUserByResetToken returns the user holding a matching, non-expired
	// reset token. Expired tokens are indistinguishable from absent ones.
	GetUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	SetResetToken(ctx context.Context, email, token string, expiry time.Time) error

	// ResetPassword updates the password of the user holding a matching,
	// non-expired reset token and clears the token.
	ResetPassword(ctx context.Context, token, passwordHash string) (*domain.User, error)

	// Tickets. List methods order by creation time, newest first.
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	ListTickets(ctx context.Context) ([]domain.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	CreateTicket(ctx context.Context, ticket *domain.Ticket) error
	UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error)

	// Responses, ordered oldest first within a ticket.
	ListResponsesByTicket(ctx context.Context, ticketID string) ([]domain.Response, error)
	CountResponsesByTicket(ctx context.Context, ticketID string) (int, error)
	CreateResponse(ctx context.Context, response *domain.Response) error

	// Admin whitelist, listed newest first.
	ListAdminEmails(ctx context.Context) ([]domain.AdminEmail, error)
	GetAdminEmailByEmail(ctx context.Context, email string) (*domain.AdminEmail, error)
	CreateAdminEmail(ctx context.Context, entry *domain.AdminEmail) error
	DeleteAdminEmail(ctx context.Context, id string) error
	IsAdminEmail(ctx context.Context, email string) (bool, error)

	// Ping reports backend reachability for readiness checks.
	Ping(ctx context.Context) error
	Close()
}
