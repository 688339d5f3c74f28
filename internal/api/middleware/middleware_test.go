package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gofiber/fiber/v2"

	config "github.com/maheshrc27/creatortask/configs"
	"github.com/maheshrc27/creatortask/pkg/utils"
)

func decodeBody(c *qt.C, resp *http.Response) map[string]any {
	body, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	var out map[string]any
	c.Assert(json.Unmarshal(body, &out), qt.IsNil)
	return out
}

func TestCronAuth(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Dispatch
		header string
		status int
	}{
		{name: "valid secret", cfg: config.Dispatch{CronSecret: "s3cret", AuthRequired: true}, header: "Bearer s3cret", status: fiber.StatusOK},
		{name: "wrong secret", cfg: config.Dispatch{CronSecret: "s3cret", AuthRequired: true}, header: "Bearer nope", status: fiber.StatusUnauthorized},
		{name: "missing header", cfg: config.Dispatch{CronSecret: "s3cret", AuthRequired: true}, status: fiber.StatusUnauthorized},
		{name: "no bearer prefix", cfg: config.Dispatch{CronSecret: "s3cret", AuthRequired: true}, header: "s3cret", status: fiber.StatusUnauthorized},
		{name: "empty secret rejects all", cfg: config.Dispatch{AuthRequired: true}, header: "Bearer ", status: fiber.StatusUnauthorized},
		{name: "auth disabled", cfg: config.Dispatch{AuthRequired: false}, status: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			reached := false

			app := fiber.New()
			app.Get("/trigger", CronAuth(tt.cfg), func(ctx *fiber.Ctx) error {
				reached = true
				return ctx.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/trigger", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			c.Assert(err, qt.IsNil)
			c.Assert(resp.StatusCode, qt.Equals, tt.status)
			c.Assert(reached, qt.Equals, tt.status == fiber.StatusOK)

			if tt.status == fiber.StatusUnauthorized {
				c.Assert(decodeBody(c, resp), qt.DeepEquals, map[string]any{"error": "Unauthorized"})
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.Config{SecretKey: "jwt-secret", CookieName: "creatortask_session"}
	valid, err := utils.GenerateToken(cfg.SecretKey, "0b6e1b8e-7d3a-4e55-9f49-5a3c2a1d9e10", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		cookie string
		bearer string
		status int
	}{
		{name: "cookie", cookie: valid, status: fiber.StatusOK},
		{name: "bearer", bearer: valid, status: fiber.StatusOK},
		{name: "missing", status: fiber.StatusUnauthorized},
		{name: "garbage", bearer: "abc.def.ghi", status: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			app := fiber.New()
			app.Get("/me", NewAuthMiddleware(cfg).AuthMiddleware(), func(ctx *fiber.Ctx) error {
				return ctx.SendString(ctx.Locals("user_id").(string))
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}

			resp, err := app.Test(req)
			c.Assert(err, qt.IsNil)
			c.Assert(resp.StatusCode, qt.Equals, tt.status)
			if tt.status == fiber.StatusOK {
				body, err := io.ReadAll(resp.Body)
				c.Assert(err, qt.IsNil)
				c.Assert(string(body), qt.Equals, "0b6e1b8e-7d3a-4e55-9f49-5a3c2a1d9e10")
			}
		})
	}
}
