package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/encorebot/support-desk/internal/auth"
	"github.com/encorebot/support-desk/internal/config"
	"github.com/encorebot/support-desk/internal/domain"
	"github.com/encorebot/support-desk/internal/email"
	"github.com/encorebot/support-desk/internal/events"
	"github.com/encorebot/support-desk/internal/storage"
	apperrors "github.com/encorebot/support-desk/pkg/util"
)

const minPasswordLength = 6

// AuthService coordinates registration, login, email verification and
// password reset flows.
type AuthService struct {
	store      storage.Store
	mailer     email.Mailer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Store      storage.Store
	Mailer     email.Mailer
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		store:      deps.Store,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a new account and sends the verification email. The
// first user ever registered becomes an admin, as does any registration
// whose email is on the admin whitelist; the whitelist is consulted only
// here, never retroactively.
func (s *AuthService) Register(ctx context.Context, emailAddr, password, fullName string) (*domain.User, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if err := validateEmail(emailAddr); err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("Password must be at least 6 characters", nil)
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, apperrors.NewValidationError("Full name is required", nil)
	}

	if _, err := s.store.GetUserByEmail(ctx, emailAddr); err == nil {
		return nil, apperrors.NewValidationError("User already exists", nil)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	allUsers, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	isFirstUser := len(allUsers) == 0

	isAdminEmail, err := s.store.IsAdminEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        emailAddr,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		IsAdmin:      isFirstUser || isAdminEmail,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperrors.NewValidationError("User already exists", nil)
		}
		return nil, err
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		ActorID: user.ID,
		Payload: events.UserRegisteredPayload{
			UserID:  user.ID,
			Email:   user.Email,
			IsAdmin: user.IsAdmin,
		},
	})
	return user, nil
}

// Login authenticates a user. Unverified accounts are rejected with a
// distinguishable error that carries the email, so clients can offer a
// resend action.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("Invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("Invalid credentials")
	}
	if !user.EmailVerified {
		return nil, apperrors.NewForbiddenWithDetails("Email not verified", map[string]any{
			"requiresVerification": true,
			"email":                user.Email,
		})
	}
	return user, nil
}

// VerifyEmail consumes a verification token. Used tokens and expired tokens
// are indistinguishable from unknown ones.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.NewValidationError("Invalid verification token", nil)
	}
	user, err := s.store.VerifyEmail(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NewValidationError("Invalid or expired verification token", nil)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventUserVerified,
		ActorID: user.ID,
		Payload: events.UserRegisteredPayload{UserID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin},
	})
	return user, nil
}

// ResendVerification issues a fresh verification token, replacing any
// earlier one.
func (s *AuthService) ResendVerification(ctx context.Context, emailAddr string) error {
	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFound("User", nil)
		}
		return err
	}
	if user.EmailVerified {
		return apperrors.NewValidationError("Email already verified", nil)
	}
	return s.issueVerification(ctx, user)
}

// ForgotPassword stores a reset token and emails it. Unknown emails are a
// silent no-op so the endpoint cannot be used to probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(auth.ResetTokenTTL)
	if err := s.store.SetResetToken(ctx, user.Email, token, expiry); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, token, user.FullName); err != nil {
		s.logger.Error("failed to send password reset email", zap.Error(err))
		return apperrors.NewDomainError("EMAIL_SEND_FAILED", "Failed to send password reset email", 500, nil)
	}
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return apperrors.NewValidationError("Token and password are required", nil)
	}
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("Password must be at least 6 characters", nil)
	}

	if _, err := s.store.GetUserByResetToken(ctx, token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewValidationError("Invalid or expired reset token", nil)
		}
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	if _, err := s.store.ResetPassword(ctx, token, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewValidationError("Invalid or expired reset token", nil)
		}
		return err
	}
	return nil
}

func (s *AuthService) issueVerification(ctx context.Context, user *domain.User) error {
	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	expiry := time.Now().Add(auth.VerificationTokenTTL)
	if err := s.store.SetVerificationToken(ctx, user.ID, token, expiry); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, token, user.FullName); err != nil {
		s.logger.Error("failed to send verification email", zap.Error(err))
		return apperrors.NewDomainError("EMAIL_SEND_FAILED", "Failed to send verification email. Please try again.", 500, nil)
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
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

func validateEmail(emailAddr string) error {
	if emailAddr == "" {
		return apperrors.NewValidationError("Email is required", nil)
	}
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return apperrors.NewValidationError("Invalid email address", nil)
	}
	return nil
}
