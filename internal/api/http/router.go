package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/encorebot/support-desk/internal/api/http/handlers"
	"github.com/encorebot/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AdminEmails    *handlers.AdminEmailsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/verify-email", cfg.Auth.VerifyEmail)
	authGroup.Post("/resend-verification", cfg.Auth.ResendVerification)
	authGroup.Post("/forgot-password", cfg.Auth.ForgotPassword)
	authGroup.Post("/reset-password", cfg.Auth.ResetPassword)
	authGroup.Get("/me", cfg.AuthMiddleware.Require, cfg.Auth.Me)

	tickets := api.Group("/tickets", cfg.AuthMiddleware.Require)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Patch("/:id/status", auth.RequireAdmin, cfg.Tickets.UpdateStatus)
	tickets.Get("/:ticketId/responses", cfg.Tickets.ListResponses)
	tickets.Post("/:ticketId/responses", cfg.Tickets.CreateResponse)

	admin := api.Group("/admin", cfg.AuthMiddleware.Require, auth.RequireAdmin)
	admin.Get("/emails", cfg.AdminEmails.List)
	admin.Post("/emails", cfg.AdminEmails.Create)
	admin.Delete("/emails/:id", cfg.AdminEmails.Delete)
}
