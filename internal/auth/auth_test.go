package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass", 10)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-pass", hashed)

	assert.NoError(t, ComparePassword(hashed, "s3cret-pass"))
	assert.Error(t, ComparePassword(hashed, "wrong-pass"))
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, first, 64)
	assert.Regexp(t, "^[0-9a-f]{64}$", first)

	second, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSessionRoundTrip(t *testing.T) {
	sessions := NewSessionManager("test-secret", time.Hour, false)

	app := fiber.New()
	app.Post("/issue", func(c *fiber.Ctx) error {
		return sessions.Issue(c, "user-123")
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		userID, err := sessions.UserID(c)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		return c.SendString(userID)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/issue", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookie, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "user-123", string(body))
}

func TestSessionRejectsTamperedAndMissingCookies(t *testing.T) {
	sessions := NewSessionManager("test-secret", time.Hour, false)

	app := fiber.New()
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if _, err := sessions.UserID(c); err != nil {
			return fiber.ErrUnauthorized
		}
		return c.SendStatus(fiber.StatusOK)
	})

	// no cookie
	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// garbage cookie
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookie+"=not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// cookie signed with a different secret
	other := NewSessionManager("other-secret", time.Hour, false)
	issuer := fiber.New()
	issuer.Post("/issue", func(c *fiber.Ctx) error {
		return other.Issue(c, "user-123")
	})
	issued, err := issuer.Test(httptest.NewRequest("POST", "/issue", nil))
	require.NoError(t, err)
	require.Len(t, issued.Cookies(), 1)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(issued.Cookies()[0])
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSessionExpired(t *testing.T) {
	sessions := NewSessionManager("test-secret", time.Nanosecond, false)

	app := fiber.New()
	app.Post("/issue", func(c *fiber.Ctx) error {
		return sessions.Issue(c, "user-123")
	})
	app.Get("/whoami", func(c *fiber.Ctx) error {
		if _, err := sessions.UserID(c); err != nil {
			return fiber.ErrUnauthorized
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/issue", nil))
	require.NoError(t, err)
	require.Len(t, resp.Cookies(), 1)

	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.AddCookie(resp.Cookies()[0])
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
