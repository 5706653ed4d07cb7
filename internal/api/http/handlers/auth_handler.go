package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/encorebot/support-desk/internal/api/dto"
	"github.com/encorebot/support-desk/internal/auth"
	"github.com/encorebot/support-desk/internal/service"
	apperrors "github.com/encorebot/support-desk/pkg/util"
)

// AuthHandler exposes registration, login and the email-proof flows.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *auth.SessionManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionManager) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.FullName)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":    dto.NewUserResponse(user),
		"message": "Registration successful. Please check your email to verify your account.",
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}

	user, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.sessions.Issue(c, user.ID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Clear(c)
	return c.JSON(fiber.Map{"success": true})
}

// Me handles GET /api/auth/me. The auth middleware has already loaded the
// user or rejected the request.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Not authenticated")
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// VerifyEmail handles GET /api/auth/verify-email?token=. A successful
// verification also opens a session, so the user lands signed in.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")

	user, err := h.auth.VerifyEmail(c.UserContext(), token)
	if err != nil {
		return err
	}
	if err := h.sessions.Issue(c, user.ID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email verified successfully. You can now log in.",
		"user":    dto.NewUserResponse(user),
	})
}

// ResendVerification handles POST /api/auth/resend-verification.
func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	var req dto.ResendVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("Email is required", nil)
	}

	if err := h.auth.ResendVerification(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Verification email sent. Please check your inbox.",
	})
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is
// identical whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("Email is required", nil)
	}

	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "If an account with that email exists, a password reset link has been sent.",
	})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request", nil)
	}
	if req.Token == "" || req.Password == "" {
		return apperrors.NewValidationError("Token and password are required", nil)
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password reset successfully. You can now log in with your new password.",
	})
}
