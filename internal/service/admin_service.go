package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/encorebot/support-desk/internal/domain"
	"github.com/encorebot/support-desk/internal/storage"
	apperrors "github.com/encorebot/support-desk/pkg/util"
)

// AdminService manages the admin-email whitelist.
type AdminService struct {
	store  storage.Store
	logger *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(store storage.Store, logger *zap.Logger) *AdminService {
	return &AdminService{store: store, logger: logger}
}

// List returns whitelist entries, newest first.
func (s *AdminService) List(ctx context.Context) ([]domain.AdminEmail, error) {
	return s.store.ListAdminEmails(ctx)
}

// Add inserts an email into the whitelist, rejecting duplicates.
func (s *AdminService) Add(ctx context.Context, emailAddr string) (*domain.AdminEmail, error) {
	if err := validateEmail(emailAddr); err != nil {
		return nil, err
	}

	if _, err := s.store.GetAdminEmailByEmail(ctx, emailAddr); err == nil {
		return nil, apperrors.NewValidationError("Email already in admin list", nil)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	entry := &domain.AdminEmail{Email: emailAddr}
	if err := s.store.CreateAdminEmail(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperrors.NewValidationError("Email already in admin list", nil)
		}
		return nil, err
	}
	return entry, nil
}

// Remove deletes a whitelist entry by ID. Removal never demotes users who
// already registered with the address.
func (s *AdminService) Remove(ctx context.Context, id string) error {
	return s.store.DeleteAdminEmail(ctx, id)
}

// EnsureDefaultEmail seeds the configured default admin address into the
// whitelist at startup, once.
func (s *AdminService) EnsureDefaultEmail(ctx context.Context, emailAddr string) error {
	if emailAddr == "" {
		return nil
	}
	if _, err := s.store.GetAdminEmailByEmail(ctx, emailAddr); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if err := s.store.CreateAdminEmail(ctx, &domain.AdminEmail{Email: emailAddr}); err != nil {
		return err
	}
	s.logger.Info("admin email added to whitelist", zap.String("email", emailAddr))
	return nil
}
