package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/encorebot/support-desk/internal/domain"
)

const uniqueViolation = "23505"

// PostgresStore is the relational backend, backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an established pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, is_admin, email_verified,
        verification_token, verification_token_expiry, reset_token, reset_token_expiry, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.IsAdmin,
		&user.EmailVerified,
		&user.VerificationToken,
		&user.VerificationTokenExpiry,
		&user.ResetToken,
		&user.ResetTokenExpiry,
		&user.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &user, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	if result == nil {
		result = []domain.User{}
	}
	return result, rows.Err()
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, full_name, is_admin, email_verified)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.IsAdmin,
		user.EmailVerified,
	).Scan(&user.ID, &user.CreatedAt)
	return mapPgError(err)
}

func (s *PostgresStore) SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) error {
	const query = `
        UPDATE users SET verification_token=$1, verification_token_expiry=$2
        WHERE id=$3`
	cmd, err := s.pool.Exec(ctx, query, token, expiry, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyEmail consumes the token in a single conditional update, so two
// concurrent redemptions cannot both succeed.
func (s *PostgresStore) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	const query = `
        UPDATE users SET email_verified=TRUE, verification_token=NULL, verification_token_expiry=NULL
        WHERE verification_token=$1 AND verification_token_expiry > NOW()
        RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, token))
}

func (s *PostgresStore) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + ` FROM users
        WHERE reset_token=$1 AND reset_token_expiry > NOW()`
	return scanUser(s.pool.QueryRow(ctx, query, token))
}

func (s *PostgresStore) SetResetToken(ctx context.Context, email, token string, expiry time.Time) error {
	const query = `
        UPDATE users SET reset_token=$1, reset_token_expiry=$2
        WHERE email=$3`
	cmd, err := s.pool.Exec(ctx, query, token, expiry, email)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ResetPassword(ctx context.Context, token, passwordHash string) (*domain.User, error) {
	const query = `
        UPDATE users SET password_hash=$1, reset_token=NULL, reset_token_expiry=NULL
        WHERE reset_token=$2 AND reset_token_expiry > NOW()
        RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, passwordHash, token))
}

const ticketColumns = `id, user_id, title, description, category, service, status, created_at, updated_at`

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Service,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &ticket, nil
}

func (s *PostgresStore) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return scanTicket(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC, id DESC`
	return s.queryTickets(ctx, query)
}

func (s *PostgresStore) ListTicketsByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	return s.queryTickets(ctx, query, userID)
}

func (s *PostgresStore) queryTickets(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (s *PostgresStore) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, title, description, category, service, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := s.pool.QueryRow(ctx, query,
		ticket.UserID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Service,
		ticket.Status,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return mapPgError(err)
}

func (s *PostgresStore) UpdateTicketStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING ` + ticketColumns
	return scanTicket(s.pool.QueryRow(ctx, query, status, id))
}

const responseColumns = `id, ticket_id, user_id, message, is_staff, created_at`

func (s *PostgresStore) ListResponsesByTicket(ctx context.Context, ticketID string) ([]domain.Response, error) {
	const query = `SELECT ` + responseColumns + ` FROM responses WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := s.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Response{}
	for rows.Next() {
		var response domain.Response
		if err := rows.Scan(
			&response.ID,
			&response.TicketID,
			&response.UserID,
			&response.Message,
			&response.IsStaff,
			&response.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, response)
	}
	return result, rows.Err()
}

func (s *PostgresStore) CountResponsesByTicket(ctx context.Context, ticketID string) (int, error) {
	const query = `SELECT COUNT(*) FROM responses WHERE ticket_id=$1`
	var count int
	if err := s.pool.QueryRow(ctx, query, ticketID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *PostgresStore) CreateResponse(ctx context.Context, response *domain.Response) error {
	const query = `
        INSERT INTO responses (ticket_id, user_id, message, is_staff)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query,
		response.TicketID,
		response.UserID,
		response.Message,
		response.IsStaff,
	).Scan(&response.ID, &response.CreatedAt)
	return mapPgError(err)
}

func (s *PostgresStore) ListAdminEmails(ctx context.Context) ([]domain.AdminEmail, error) {
	const query = `SELECT id, email, created_at FROM admin_emails ORDER BY created_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.AdminEmail{}
	for rows.Next() {
		var entry domain.AdminEmail
		if err := rows.Scan(&entry.ID, &entry.Email, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (s *PostgresStore) GetAdminEmailByEmail(ctx context.Context, email string) (*domain.AdminEmail, error) {
	const query = `SELECT id, email, created_at FROM admin_emails WHERE email=$1`
	var entry domain.AdminEmail
	if err := s.pool.QueryRow(ctx, query, email).Scan(&entry.ID, &entry.Email, &entry.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}
	return &entry, nil
}

func (s *PostgresStore) CreateAdminEmail(ctx context.Context, entry *domain.AdminEmail) error {
	const query = `
        INSERT INTO admin_emails (email)
        VALUES ($1)
        RETURNING id, created_at`
	err := s.pool.QueryRow(ctx, query, entry.Email).Scan(&entry.ID, &entry.CreatedAt)
	return mapPgError(err)
}

func (s *PostgresStore) DeleteAdminEmail(ctx context.Context, id string) error {
	const query = `DELETE FROM admin_emails WHERE id=$1`
	_, err := s.pool.Exec(ctx, query, id)
	return err
}

func (s *PostgresStore) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT COUNT(*) FROM admin_emails WHERE email=$1`
	var count int
	if err := s.pool.QueryRow(ctx, query, email).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
