package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	httptransport "github.com/encorebot/support-desk/internal/api/http"
	"github.com/encorebot/support-desk/internal/api/http/handlers"
	"github.com/encorebot/support-desk/internal/auth"
	"github.com/encorebot/support-desk/internal/config"
	"github.com/encorebot/support-desk/internal/events"
	"github.com/encorebot/support-desk/internal/observability"
	"github.com/encorebot/support-desk/internal/service"
	"github.com/encorebot/support-desk/internal/storage"
)

// captureMailer records tokens so tests can follow the email links.
type captureMailer struct {
	verificationTokens map[string]string
	resetTokens        map[string]string
}

func (m *captureMailer) SendVerificationEmail(_ context.Context, to, token, _ string) error {
	m.verificationTokens[to] = token
	return nil
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, to, token, _ string) error {
	m.resetTokens[to] = token
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *captureMailer) {
	t.Helper()

	store := storage.NewMemoryStore()
	logger := zap.NewNop()
	mailer := &captureMailer{
		verificationTokens: make(map[string]string),
		resetTokens:        make(map[string]string),
	}
	dispatcher := events.NewInMemoryDispatcher()
	sessions := auth.NewSessionManager("test-secret", time.Hour, false)

	cfg := config.Config{Auth: config.AuthConfig{BcryptCost: bcrypt.MinCost}}
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		Store:      store,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(store, dispatcher)
	adminService := service.NewAdminService(store, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(store),
		Auth:           handlers.NewAuthHandler(authService, sessions),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AdminEmails:    handlers.NewAdminEmailsHandler(adminService),
		AuthMiddleware: auth.NewMiddleware(sessions, store),
	})
	return app, mailer
}

type testResponse struct {
	status  int
	body    map[string]any
	cookies []*http.Cookie
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any, session *http.Cookie) testResponse {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return testResponse{status: resp.StatusCode, body: decoded, cookies: resp.Cookies()}
}

func sessionCookie(t *testing.T, resp testResponse) *http.Cookie {
	t.Helper()
	for _, cookie := range resp.cookies {
		if cookie.Name == auth.SessionCookie && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// registerAndVerify walks a user through signup and email verification and
// returns a logged-in session cookie.
func registerAndVerify(t *testing.T, app *fiber.App, mailer *captureMailer, email string) *http.Cookie {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/auth/register", fiber.Map{
		"email": email, "password": "password", "fullName": "Test User",
	}, nil)
	require.Equal(t, 200, resp.status)

	token := mailer.verificationTokens[email]
	require.NotEmpty(t, token)
	resp = doJSON(t, app, "GET", "/api/auth/verify-email?token="+token, nil, nil)
	require.Equal(t, 200, resp.status)
	return sessionCookie(t, resp)
}

func TestAuthEndToEnd(t *testing.T) {
	app, mailer := newTestApp(t)

	// register: first user becomes admin
	resp := doJSON(t, app, "POST", "/api/auth/register", fiber.Map{
		"email": "alice@example.com", "password": "password", "fullName": "Alice",
	}, nil)
	require.Equal(t, 200, resp.status)
	user := resp.body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, true, user["isAdmin"])
	assert.Equal(t, false, user["emailVerified"])

	// login before verification is rejected with the resend hint
	resp = doJSON(t, app, "POST", "/api/auth/login", fiber.Map{
		"email": "alice@example.com", "password": "password",
	}, nil)
	assert.Equal(t, 403, resp.status)
	assert.Equal(t, "Email not verified", resp.body["error"])
	assert.Equal(t, true, resp.body["requiresVerification"])
	assert.Equal(t, "alice@example.com", resp.body["email"])

	// bad credentials
	resp = doJSON(t, app, "POST", "/api/auth/login", fiber.Map{
		"email": "alice@example.com", "password": "wrong",
	}, nil)
	assert.Equal(t, 401, resp.status)
	assert.Equal(t, "Invalid credentials", resp.body["error"])

	// verify and land signed in
	token := mailer.verificationTokens["alice@example.com"]
	resp = doJSON(t, app, "GET", "/api/auth/verify-email?token="+token, nil, nil)
	require.Equal(t, 200, resp.status)
	cookie := sessionCookie(t, resp)

	// a used token is rejected
	resp = doJSON(t, app, "GET", "/api/auth/verify-email?token="+token, nil, nil)
	assert.Equal(t, 400, resp.status)
	assert.Equal(t, "Invalid or expired verification token", resp.body["error"])

	// me with the session cookie
	resp = doJSON(t, app, "GET", "/api/auth/me", nil, cookie)
	require.Equal(t, 200, resp.status)
	me := resp.body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", me["email"])
	assert.Equal(t, true, me["emailVerified"])

	// me without a cookie
	resp = doJSON(t, app, "GET", "/api/auth/me", nil, nil)
	assert.Equal(t, 401, resp.status)
	assert.Equal(t, "Not authenticated", resp.body["error"])

	// login now succeeds and sets a cookie
	resp = doJSON(t, app, "POST", "/api/auth/login", fiber.Map{
		"email": "alice@example.com", "password": "password",
	}, nil)
	require.Equal(t, 200, resp.status)
	sessionCookie(t, resp)

	// logout clears the cookie
	resp = doJSON(t, app, "POST", "/api/auth/logout", nil, cookie)
	require.Equal(t, 200, resp.status)
	assert.Equal(t, true, resp.body["success"])
}

func TestPasswordResetEndToEnd(t *testing.T) {
	app, mailer := newTestApp(t)
	registerAndVerify(t, app, mailer, "alice@example.com")

	// the response never reveals whether the account exists
	resp := doJSON(t, app, "POST", "/api/auth/forgot-password", fiber.Map{"email": "nobody@example.com"}, nil)
	require.Equal(t, 200, resp.status)
	assert.Equal(t, true, resp.body["success"])

	resp = doJSON(t, app, "POST", "/api/auth/forgot-password", fiber.Map{"email": "alice@example.com"}, nil)
	require.Equal(t, 200, resp.status)
	token := mailer.resetTokens["alice@example.com"]
	require.NotEmpty(t, token)

	resp = doJSON(t, app, "POST", "/api/auth/reset-password", fiber.Map{"token": token, "password": "new-password"}, nil)
	require.Equal(t, 200, resp.status)

	resp = doJSON(t, app, "POST", "/api/auth/reset-password", fiber.Map{"token": token, "password": "again-pass"}, nil)
	assert.Equal(t, 400, resp.status)
	assert.Equal(t, "Invalid or expired reset token", resp.body["error"])

	resp = doJSON(t, app, "POST", "/api/auth/login", fiber.Map{"email": "alice@example.com", "password": "new-password"}, nil)
	assert.Equal(t, 200, resp.status)
}

func TestTicketsEndToEnd(t *testing.T) {
	app, mailer := newTestApp(t)
	adminCookie := registerAndVerify(t, app, mailer, "admin@example.com") // first user
	userCookie := registerAndVerify(t, app, mailer, "user@example.com")
	otherCookie := registerAndVerify(t, app, mailer, "other@example.com")

	// unauthenticated access
	resp := doJSON(t, app, "GET", "/api/tickets", nil, nil)
	assert.Equal(t, 401, resp.status)

	// create
	resp = doJSON(t, app, "POST", "/api/tickets", fiber.Map{
		"title": "Broken export", "description": "CSV export 500s", "category": "bug", "service": "reports",
	}, userCookie)
	require.Equal(t, 200, resp.status)
	ticket := resp.body["ticket"].(map[string]any)
	ticketID := ticket["id"].(string)
	assert.Equal(t, "open", ticket["status"])

	resp = doJSON(t, app, "POST", "/api/tickets", fiber.Map{"title": "missing fields"}, userCookie)
	assert.Equal(t, 400, resp.status)

	// owner sees own ticket with count, admin sees it too, stranger does not
	resp = doJSON(t, app, "GET", "/api/tickets", nil, userCookie)
	require.Equal(t, 200, resp.status)
	tickets := resp.body["tickets"].([]any)
	require.Len(t, tickets, 1)
	assert.Equal(t, float64(0), tickets[0].(map[string]any)["responseCount"])

	resp = doJSON(t, app, "GET", "/api/tickets", nil, adminCookie)
	require.Equal(t, 200, resp.status)
	assert.Len(t, resp.body["tickets"].([]any), 1)

	resp = doJSON(t, app, "GET", "/api/tickets", nil, otherCookie)
	require.Equal(t, 200, resp.status)
	assert.Empty(t, resp.body["tickets"].([]any))

	resp = doJSON(t, app, "GET", "/api/tickets/"+ticketID, nil, otherCookie)
	assert.Equal(t, 403, resp.status)
	assert.Equal(t, "Not authorized", resp.body["error"])

	// status change is admin-only
	resp = doJSON(t, app, "PATCH", "/api/tickets/"+ticketID+"/status", fiber.Map{"status": "in_progress"}, userCookie)
	assert.Equal(t, 403, resp.status)

	resp = doJSON(t, app, "PATCH", "/api/tickets/"+ticketID+"/status", fiber.Map{"status": "in_progress"}, adminCookie)
	require.Equal(t, 200, resp.status)
	assert.Equal(t, "in_progress", resp.body["ticket"].(map[string]any)["status"])

	resp = doJSON(t, app, "PATCH", "/api/tickets/"+ticketID+"/status", fiber.Map{"status": "bogus"}, adminCookie)
	assert.Equal(t, 400, resp.status)
	assert.Equal(t, "Invalid status", resp.body["error"])

	// responses: owner asks, admin replies as staff
	resp = doJSON(t, app, "POST", "/api/tickets/"+ticketID+"/responses", fiber.Map{"message": "any news?"}, userCookie)
	require.Equal(t, 200, resp.status)
	assert.Equal(t, false, resp.body["response"].(map[string]any)["isStaff"])

	resp = doJSON(t, app, "POST", "/api/tickets/"+ticketID+"/responses", fiber.Map{"message": "on it"}, adminCookie)
	require.Equal(t, 200, resp.status)
	assert.Equal(t, true, resp.body["response"].(map[string]any)["isStaff"])

	resp = doJSON(t, app, "GET", "/api/tickets/"+ticketID+"/responses", nil, userCookie)
	require.Equal(t, 200, resp.status)
	thread := resp.body["responses"].([]any)
	require.Len(t, thread, 2)
	assert.Equal(t, "any news?", thread[0].(map[string]any)["message"])
	assert.Equal(t, "on it", thread[1].(map[string]any)["message"])

	resp = doJSON(t, app, "GET", "/api/tickets/"+ticketID+"/responses", nil, otherCookie)
	assert.Equal(t, 403, resp.status)

	// count reflects the thread
	resp = doJSON(t, app, "GET", "/api/tickets", nil, userCookie)
	require.Equal(t, 200, resp.status)
	assert.Equal(t, float64(2), resp.body["tickets"].([]any)[0].(map[string]any)["responseCount"])
}

func TestAdminEmailsEndToEnd(t *testing.T) {
	app, mailer := newTestApp(t)
	adminCookie := registerAndVerify(t, app, mailer, "admin@example.com")
	userCookie := registerAndVerify(t, app, mailer, "user@example.com")

	// non-admins are rejected
	resp := doJSON(t, app, "GET", "/api/admin/emails", nil, userCookie)
	assert.Equal(t, 403, resp.status)
	resp = doJSON(t, app, "GET", "/api/admin/emails", nil, nil)
	assert.Equal(t, 401, resp.status)

	resp = doJSON(t, app, "POST", "/api/admin/emails", fiber.Map{"email": "ops@example.com"}, adminCookie)
	require.Equal(t, 200, resp.status)
	entry := resp.body["adminEmail"].(map[string]any)
	assert.Equal(t, "ops@example.com", entry["email"])

	resp = doJSON(t, app, "POST", "/api/admin/emails", fiber.Map{"email": "ops@example.com"}, adminCookie)
	assert.Equal(t, 400, resp.status)
	assert.Equal(t, "Email already in admin list", resp.body["error"])

	// whitelisted registration lands as admin
	registerResp := doJSON(t, app, "POST", "/api/auth/register", fiber.Map{
		"email": "ops@example.com", "password": "password", "fullName": "Ops",
	}, nil)
	require.Equal(t, 200, registerResp.status)
	assert.Equal(t, true, registerResp.body["user"].(map[string]any)["isAdmin"])

	resp = doJSON(t, app, "GET", "/api/admin/emails", nil, adminCookie)
	require.Equal(t, 200, resp.status)
	require.Len(t, resp.body["emails"].([]any), 1)

	resp = doJSON(t, app, "DELETE", "/api/admin/emails/"+entry["id"].(string), nil, adminCookie)
	require.Equal(t, 200, resp.status)
	assert.Equal(t, true, resp.body["success"])

	resp = doJSON(t, app, "GET", "/api/admin/emails", nil, adminCookie)
	require.Equal(t, 200, resp.status)
	assert.Empty(t, resp.body["emails"].([]any))
}

func TestHealthEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, "GET", "/health/live", nil, nil)
	assert.Equal(t, 200, resp.status)
	assert.Equal(t, "ok", resp.body["status"])

	resp = doJSON(t, app, "GET", "/health/ready", nil, nil)
	assert.Equal(t, 200, resp.status)
	assert.Equal(t, "ok", resp.body["status"])
}
