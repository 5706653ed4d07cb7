package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/encorebot/support-desk/internal/domain"
	"github.com/encorebot/support-desk/internal/storage"
	apperrors "github.com/encorebot/support-desk/pkg/util"
)

const userKey = "auth_user"

// Middleware validates session cookies and loads the authenticated user.
type Middleware struct {
	sessions *SessionManager
	store    storage.Store
}

// NewMiddleware constructs middleware.
func NewMiddleware(sessions *SessionManager, store storage.Store) *Middleware {
	return &Middleware{sessions: sessions, store: store}
}

// Require rejects unauthenticated requests and stashes the user in locals.
func (m *Middleware) Require(c *fiber.Ctx) error {
	userID, err := m.sessions.UserID(c)
	if err != nil {
		return apperrors.NewUnauthorized("Not authenticated")
	}

	user, err := m.store.GetUser(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewUnauthorized("User not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(userKey, user)
	return c.Next()
}

// RequireAdmin must run after Require; it rejects non-admin callers.
func RequireAdmin(c *fiber.Ctx) error {
	user, ok := UserFromContext(c)
	if !ok || !user.IsAdmin {
		return apperrors.NewForbidden("Not authorized")
	}
	return c.Next()
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}
