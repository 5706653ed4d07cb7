package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/encorebot/support-desk/internal/domain"
)

// Key layout for the document backend. Entities are JSON documents under
// their ID key; email and token lookups go through index keys; ordering is
// kept in sorted sets scored by creation time.
const (
	keyUser            = "sd:user:"        // + id -> JSON document
	keyUserEmailIdx    = "sd:user:email:"  // + email -> id
	keyUserVerifyIdx   = "sd:user:vtoken:" // + token -> id
	keyUserResetIdx    = "sd:user:rtoken:" // + token -> id
	keyUsersSet        = "sd:users"
	keyTicket          = "sd:ticket:" // + id -> JSON document
	keyTicketsSet      = "sd:tickets"
	keyTicketsUserSet  = "sd:tickets:user:" // + userID
	keyResponse        = "sd:response:"     // + id -> JSON document
	keyResponsesSet    = "sd:responses:ticket:"
	keyAdminEmail      = "sd:admin_email:" // + id -> JSON document
	keyAdminEmailIdx   = "sd:admin_email:email:"
	keyAdminEmailsSet  = "sd:admin_emails"
)

// RedisStore is the document-store backend. Each entity is one JSON
// document; no relational features of the server are used.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an established client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type userDoc struct {
	ID                      string     `json:"id"`
	Email                   string     `json:"email"`
	PasswordHash            string     `json:"passwordHash"`
	FullName                string     `json:"fullName"`
	IsAdmin                 bool       `json:"isAdmin"`
	EmailVerified           bool       `json:"emailVerified"`
	VerificationToken       *string    `json:"verificationToken,omitempty"`
	VerificationTokenExpiry *time.Time `json:"verificationTokenExpiry,omitempty"`
	ResetToken              *string    `json:"resetToken,omitempty"`
	ResetTokenExpiry        *time.Time `json:"resetTokenExpiry,omitempty"`
	CreatedAt               time.Time  `json:"createdAt"`
}

func userToDoc(u *domain.User) userDoc {
	return userDoc(*u)
}

func docToUser(d userDoc) *domain.User {
	u := domain.User(d)
	return &u
}

func (s *RedisStore) getJSON(ctx context.Context, key string, dest any) error {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (s *RedisStore) setJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, 0).Err()
}

func (s *RedisStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var doc userDoc
	if err := s.getJSON(ctx, keyUser+id, &doc); err != nil {
		return nil, err
	}
	return docToUser(doc), nil
}

func (s *RedisStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := s.client.Get(ctx, keyUserEmailIdx+email).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}

func (s *RedisStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	ids, err := s.client.ZRange(ctx, keyUsersSet, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	result := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, *user)
	}
	return result, nil
}

func (s *RedisStore) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	ok, err := s.client.SetNX(ctx, keyUserEmailIdx+user.Email, user.ID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}

	if err := s.setJSON(ctx, keyUser+user.ID, userToDoc(user)); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, keyUsersSet, redis.Z{
		Score:  float64(user.CreatedAt.UnixNano()),
		Member: user.ID,
	}).Err()
}

func (s *RedisStore) saveUser(ctx context.Context, user *domain.User) error {
	return s.setJSON(ctx, keyUser+user.ID, userToDoc(user))
}

func (s *RedisStore) SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.VerificationToken != nil {
		s.client.Del(ctx, keyUserVerifyIdx+*user.VerificationToken)
	}
	user.VerificationToken = &token
	user.VerificationTokenExpiry = &expiry
	if err := s.saveUser(ctx, user); err != nil {
		return err
	}
	// The index key expires with the token, so stale lookups age out.
	return s.client.Set(ctx, keyUserVerifyIdx+token, userID, tokenTTL(expiry)).Err()
}

// VerifyEmail is read-then-write on this backend: two concurrent
// redemptions of the same token are not serialized. Acceptable for
// short-lived single-use tokens.
func (s *RedisStore) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.client.Get(ctx, keyUserVerifyIdx+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.VerificationToken == nil || *user.VerificationToken != token {
		return nil, ErrNotFound
	}
	if user.VerificationTokenExpiry == nil || time.Now().After(*user.VerificationTokenExpiry) {
		return nil, ErrNotFound
	}
	user.EmailVerified = true
	user.VerificationToken = nil
	user.VerificationTokenExpiry = nil
	if err := s.saveUser(ctx, user); err != nil {
		return nil, err
	}
	s.client.Del(ctx, keyUserVerifyIdx+token)
	return user, nil
}

func (s *RedisStore) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.client.Get(ctx, keyUserResetIdx+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ResetToken == nil || *user.ResetToken != token {
		return nil, ErrNotFound
	}
	if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *RedisStore) SetResetToken(ctx context.Context, email, token string, expiry time.Time) error {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.ResetToken != nil {
		s.client.Del(ctx, keyUserResetIdx+*user.ResetToken)
	}
	user.ResetToken = &token
	user.ResetTokenExpiry = &expiry
	if err := s.saveUser(ctx, user); err != nil {
		return err
	}
	return s.client.Set(ctx, keyUserResetIdx+token, user.ID, tokenTTL(expiry)).Err()
}

func (s *RedisStore) ResetPassword(ctx context.Context, token, passwordHash string) (*domain.User, error) {
	user, err := s.GetUserByResetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = passwordHash
	user.ResetToken = nil
	user.ResetTokenExpiry = nil
	if err := s.saveUser(ctx, user); err != nil {
		return nil, err
	}
	s.client.Del(ctx, keyUserResetIdx+token)
	return user, nil
}

type ticketDoc struct {
	ID          string              `json:"id"`
	UserID      string              `json:"userId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Service     string              `json:"service"`
	Status      domain.TicketStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

func (s *RedisStore) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var doc ticketDoc
	if err := s.getJSON(ctx, keyTicket+id, &doc); err != nil {
		return nil, err
	}
	ticket := domain.Ticket(doc)
	return &ticket, nil
}

func (s *RedisStore) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.ticketsFromSet(ctx, keyTicketsSet)
}

func (s *RedisStore) ListTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return s.ticketsFromSet(ctx, keyTicketsUserSet+userID)
}

func (s *RedisStore) ticketsFromSet(ctx context.Context, key string) ([]domain.Ticket, error) {
	ids, err := s.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	result := make([]domain.Ticket, 0, len(ids))
	for _, id := range ids {
		ticket, err := s.GetTicket(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (s *RedisStore) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
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
	if err := s.setJSON(ctx, keyTicket+ticket.ID, ticketDoc(*ticket)); err != nil {
		return err
	}
	member := redis.Z{Score: float64(ticket.CreatedAt.UnixNano()), Member: ticket.ID}
	if err := s.client.ZAdd(ctx, keyTicketsSet, member).Err(); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, keyTicketsUserSet+ticket.UserID, member).Err()
}

func (s *RedisStore) UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now().UTC()
	if err := s.setJSON(ctx, keyTicket+id, ticketDoc(*ticket)); err != nil {
		return nil, err
	}
	return ticket, nil
}

type responseDoc struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticketId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	IsStaff   bool      `json:"isStaff"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *RedisStore) ListResponsesByTicket(ctx context.Context, ticketID string) ([]domain.Response, error) {
	ids, err := s.client.ZRange(ctx, keyResponsesSet+ticketID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	result := make([]domain.Response, 0, len(ids))
	for _, id := range ids {
		var doc responseDoc
		if err := s.getJSON(ctx, keyResponse+id, &doc); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, domain.Response(doc))
	}
	return result, nil
}

func (s *RedisStore) CountResponsesByTicket(ctx context.Context, ticketID string) (int, error) {
	count, err := s.client.ZCard(ctx, keyResponsesSet+ticketID).Result()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *RedisStore) CreateResponse(ctx context.Context, response *domain.Response) error {
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now().UTC()
	}
	if err := s.setJSON(ctx, keyResponse+response.ID, responseDoc(*response)); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, keyResponsesSet+response.TicketID, redis.Z{
		Score:  float64(response.CreatedAt.UnixNano()),
		Member: response.ID,
	}).Err()
}

type adminEmailDoc struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *RedisStore) ListAdminEmails(ctx context.Context) ([]domain.AdminEmail, error) {
	ids, err := s.client.ZRevRange(ctx, keyAdminEmailsSet, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	result := make([]domain.AdminEmail, 0, len(ids))
	for _, id := range ids {
		var doc adminEmailDoc
		if err := s.getJSON(ctx, keyAdminEmail+id, &doc); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, domain.AdminEmail(doc))
	}
	return result, nil
}

func (s *RedisStore) GetAdminEmailByEmail(ctx context.Context, email string) (*domain.AdminEmail, error) {
	id, err := s.client.Get(ctx, keyAdminEmailIdx+email).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc adminEmailDoc
	if err := s.getJSON(ctx, keyAdminEmail+id, &doc); err != nil {
		return nil, err
	}
	entry := domain.AdminEmail(doc)
	return &entry, nil
}

func (s *RedisStore) CreateAdminEmail(ctx context.Context, entry *domain.AdminEmail) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	ok, err := s.client.SetNX(ctx, keyAdminEmailIdx+entry.Email, entry.ID, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	if err := s.setJSON(ctx, keyAdminEmail+entry.ID, adminEmailDoc(*entry)); err != nil {
		return err
	}
	return s.client.ZAdd(ctx, keyAdminEmailsSet, redis.Z{
		Score:  float64(entry.CreatedAt.UnixNano()),
		Member: entry.ID,
	}).Err()
}

func (s *RedisStore) DeleteAdminEmail(ctx context.Context, id string) error {
	var doc adminEmailDoc
	err := s.getJSON(ctx, keyAdminEmail+id, &doc)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keyAdminEmail+id)
	pipe.Del(ctx, keyAdminEmailIdx+doc.Email)
	pipe.ZRem(ctx, keyAdminEmailsSet, id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	count, err := s.client.Exists(ctx, keyAdminEmailIdx+email).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// tokenTTL keeps already-expired tokens storable; the document's expiry
// field is authoritative either way.
func tokenTTL(expiry time.Time) time.Duration {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return 0
	}
	return ttl
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() {
	_ = s.client.Close()
}
