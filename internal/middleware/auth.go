package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"salesforecast/internal/models"
)

// Session keys written by the OIDC callback.
const (
	SessionUserSub   = "user_sub"
	SessionUserEmail = "user_email"
	SessionUserName  = "user_name"
	SessionRedirect  = "redirect_after_login"
)

// AuthMiddleware handles user authentication via sessions. When disabled
// every request passes through anonymously.
type AuthMiddleware struct {
	enabled bool
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(enabled bool) *AuthMiddleware {
	return &AuthMiddleware{enabled: enabled}
}

// Enabled reports whether the login gate is active.
func (m *AuthMiddleware) Enabled() bool {
	return m.enabled
}

// RequireAuth ensures the user is authenticated. Pages redirect to /login;
// API routes get a 401 JSON envelope.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	if !m.enabled {
		return c.Next()
	}

	sess := session.FromContext(c)
	if user := userFromSession(sess); user != nil {
		c.Locals("user", user)
		return c.Next()
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "authentication required",
		})
	}

	if sess != nil && c.Method() == fiber.MethodGet {
		sess.Set(SessionRedirect, c.OriginalURL())
	}
	return c.Redirect().To("/login")
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if !m.enabled {
		return c.Next()
	}
	if user := userFromSession(session.FromContext(c)); user != nil {
		c.Locals("user", user)
	}
	return c.Next()
}

// CurrentUser returns the user loaded by the middleware, or nil.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// StoreUser writes user into the session.
func StoreUser(sess *session.Middleware, user *models.User) {
	sess.Set(SessionUserSub, user.Sub)
	sess.Set(SessionUserEmail, user.Email)
	sess.Set(SessionUserName, user.Name)
}

func userFromSession(sess *session.Middleware) *models.User {
	if sess == nil {
		return nil
	}
	sub, _ := sess.Get(SessionUserSub).(string)
	if sub == "" {
		return nil
	}
	email, _ := sess.Get(SessionUserEmail).(string)
	name, _ := sess.Get(SessionUserName).(string)
	return &models.User{Sub: sub, Email: email, Name: name}
}
