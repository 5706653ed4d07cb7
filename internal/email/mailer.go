// Package email sends verification and password-reset mail through the
// Resend HTTP API. When no API key is configured a log-only mailer is used
// instead, so development setups work without a provider account.
package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/encorebot/support-desk/internal/config"
)

// Mailer is the outbound mail contract the auth flows depend on.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, token, fullName string) error
	SendPasswordResetEmail(ctx context.Context, to, token, fullName string) error
}

// NewMailer selects the Resend client when an API key is configured and the
// logging fallback otherwise.
func NewMailer(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not configured; outbound mail will only be logged")
		return &logMailer{logger: logger, baseURL: cfg.BaseURL}
	}
	return NewResendMailer(cfg, logger)
}

type logMailer struct {
	logger  *zap.Logger
	baseURL string
}

func (m *logMailer) SendVerificationEmail(_ context.Context, to, token, _ string) error {
	m.logger.Info("verification email (not sent)",
		zap.String("to", to),
		zap.String("url", verificationURL(m.baseURL, token)))
	return nil
}

func (m *logMailer) SendPasswordResetEmail(_ context.Context, to, token, _ string) error {
	m.logger.Info("password reset email (not sent)",
		zap.String("to", to),
		zap.String("url", resetURL(m.baseURL, token)))
	return nil
}
