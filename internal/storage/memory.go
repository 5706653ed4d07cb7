package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/encorebot/support-desk/internal/domain"
)

// MemoryStore keeps everything in maps guarded by a single RWMutex. It is
// the default backend for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]*domain.User
	tickets     map[string]*domain.Ticket
	responses   map[string]*domain.Response
	adminEmails map[string]*domain.AdminEmail
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*domain.User),
		tickets:     make(map[string]*domain.Ticket),
		responses:   make(map[string]*domain.Response),
		adminEmails: make(map[string]*domain.AdminEmail),
	}
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, *user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) SetVerificationToken(_ context.Context, userID, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.VerificationToken = &token
	user.VerificationTokenExpiry = &expiry
	return nil
}

func (s *MemoryStore) VerifyEmail(_ context.Context, token string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.VerificationToken == nil || *user.VerificationToken != token {
			continue
		}
		if user.VerificationTokenExpiry == nil || time.Now().After(*user.VerificationTokenExpiry) {
			return nil, ErrNotFound
		}
		user.EmailVerified = true
		user.VerificationToken = nil
		user.VerificationTokenExpiry = nil
		copied := *user
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByResetToken(_ context.Context, token string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.ResetToken == nil || *user.ResetToken != token {
			continue
		}
		if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
			return nil, ErrNotFound
		}
		copied := *user
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetResetToken(_ context.Context, email, token string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			user.ResetToken = &token
			user.ResetTokenExpiry = &expiry
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ResetPassword(_ context.Context, token, passwordHash string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ResetToken == nil || *user.ResetToken != token {
			continue
		}
		if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
			return nil, ErrNotFound
		}
		user.PasswordHash = passwordHash
		user.ResetToken = nil
		user.ResetTokenExpiry = nil
		copied := *user
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetTicket(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (s *MemoryStore) ListTickets(_ context.Context) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		result = append(result, *ticket)
	}
	sortTicketsNewestFirst(result)
	return result, nil
}

func (s *MemoryStore) ListTicketsByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Ticket, 0)
	for _, ticket := range s.tickets {
		if ticket.UserID == userID {
			result = append(result, *ticket)
		}
	}
	sortTicketsNewestFirst(result)
	return result, nil
}

func (s *MemoryStore) CreateTicket(_ context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = now
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	copied := *ticket
	s.tickets[ticket.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateTicketStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now().UTC()
	copied := *ticket
	return &copied, nil
}

func (s *MemoryStore) ListResponsesByTicket(_ context.Context, ticketID string) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Response, 0)
	for _, response := range s.responses {
		if response.TicketID == ticketID {
			result = append(result, *response)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) CountResponsesByTicket(_ context.Context, ticketID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, response := range s.responses {
		if response.TicketID == ticketID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CreateResponse(_ context.Context, response *domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}
	copied := *response
	s.responses[response.ID] = &copied
	return nil
}

func (s *MemoryStore) ListAdminEmails(_ context.Context) ([]domain.AdminEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.AdminEmail, 0, len(s.adminEmails))
	for _, entry := range s.adminEmails {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) GetAdminEmailByEmail(_ context.Context, email string) (*domain.AdminEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.adminEmails {
		if entry.Email == email {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateAdminEmail(_ context.Context, entry *domain.AdminEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.adminEmails {
		if existing.Email == entry.Email {
			return ErrDuplicate
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	copied := *entry
	s.adminEmails[entry.ID] = &copied
	return nil
}

func (s *MemoryStore) DeleteAdminEmail(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.adminEmails, id)
	return nil
}

func (s *MemoryStore) IsAdminEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.adminEmails {
		if entry.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func sortTicketsNewestFirst(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID > tickets[j].ID
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
}
