package middleware

import (
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"salesforecast/internal/models"
)

func newTestApp(enabled bool) *fiber.App {
	app := fiber.New()
	sessionMiddleware, _ := session.NewWithStore(session.Config{
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	auth := NewAuthMiddleware(enabled)

	app.Post("/login-as", func(c fiber.Ctx) error {
		StoreUser(session.FromContext(c), &models.User{Sub: "abc", Email: "alice@example.com", Name: "Alice"})
		return c.SendString("ok")
	})
	app.Get("/", auth.RequireAuth, func(c fiber.Ctx) error {
		return c.SendString("hello " + CurrentUser(c).DisplayName())
	})
	app.Get("/api/v1/schema", auth.RequireAuth, func(c fiber.Ctx) error {
		return c.SendString("schema")
	})
	app.Get("/open", auth.OptionalAuth, func(c fiber.Ctx) error {
		return c.SendString("hello " + CurrentUser(c).DisplayName())
	})
	return app
}

func TestRequireAuth_Disabled(t *testing.T) {
	app := newTestApp(false)

	resp, err := app.Test(httptestRequest(t, "GET", "/open"))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "hello " {
		t.Errorf("got %d %q, want 200 anonymous", resp.StatusCode, body)
	}

	resp, err = app.Test(httptestRequest(t, "GET", "/api/v1/schema"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("disabled gate: status = %d, want 200", resp.StatusCode)
	}
}

func TestRequireAuth_Anonymous(t *testing.T) {
	app := newTestApp(true)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/", fiber.StatusSeeOther},
		{"/api/v1/schema", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptestRequest(t, "GET", tt.path))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == fiber.StatusSeeOther && resp.Header.Get("Location") != "/login" {
				t.Errorf("Location = %q, want /login", resp.Header.Get("Location"))
			}
		})
	}
}

func TestRequireAuth_SessionUser(t *testing.T) {
	app := newTestApp(true)

	resp, err := app.Test(httptestRequest(t, "POST", "/login-as"))
	if err != nil {
		t.Fatal(err)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie returned")
	}

	req := httptestRequest(t, "GET", "/")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(body) != "hello Alice" {
		t.Errorf("got %d %q, want 200 \"hello Alice\"", resp.StatusCode, body)
	}
}

func httptestRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	return req
}
