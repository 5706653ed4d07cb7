package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/encorebot/support-desk/internal/config"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendMailer sends mail through the Resend REST API.
type ResendMailer struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewResendMailer builds the client.
func NewResendMailer(cfg config.EmailConfig, logger *zap.Logger) *ResendMailer {
	return &ResendMailer{
		apiKey:  cfg.ResendAPIKey,
		from:    cfg.From,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type resendError struct {
	Message string `json:"message"`
}

func (m *ResendMailer) SendVerificationEmail(ctx context.Context, to, token, fullName string) error {
	link := verificationURL(m.baseURL, token)
	body := fmt.Sprintf(verificationTemplate, fullName, link, link)
	return m.send(ctx, to, "Verify your email", body)
}

func (m *ResendMailer) SendPasswordResetEmail(ctx context.Context, to, token, fullName string) error {
	link := resetURL(m.baseURL, token)
	body := fmt.Sprintf(resetTemplate, fullName, link, link)
	return m.send(ctx, to, "Reset your password", body)
}

func (m *ResendMailer) send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr resendError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return fmt.Errorf("resend: %s", apiErr.Message)
	}

	m.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func verificationURL(baseURL, token string) string {
	return baseURL + "/verify-email?token=" + url.QueryEscape(token)
}

func resetURL(baseURL, token string) string {
	return baseURL + "/reset-password?token=" + url.QueryEscape(token)
}

const verificationTemplate = `<html>
  <body>
    <p>Hi %s,</p>
    <p>Welcome to the support desk. Please verify your email address by
    clicking the link below. The link expires in 24 hours.</p>
    <p><a href="%s">Verify email address</a></p>
    <p>Or copy and paste this link: %s</p>
    <p>If you didn't create an account, please disregard this email.</p>
  </body>
</html>`

const resetTemplate = `<html>
  <body>
    <p>Hi %s,</p>
    <p>We received a request to reset your password. The link below expires
    in 1 hour.</p>
    <p><a href="%s">Reset password</a></p>
    <p>Or copy and paste this link: %s</p>
    <p>If you didn't request a reset, you can safely ignore this email.</p>
  </body>
</html>`
