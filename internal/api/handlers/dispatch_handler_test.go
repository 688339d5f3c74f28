package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gofiber/fiber/v2"

	"github.com/maheshrc27/creatortask/internal/service"
)

type mockCycleRunner struct {
	run func(ctx context.Context, now time.Time) (*service.CycleResult, error)
}

func (m *mockCycleRunner) RunCycle(ctx context.Context, now time.Time) (*service.CycleResult, error) {
	return m.run(ctx, now)
}

func readJSON(c *qt.C, resp *http.Response) map[string]any {
	body, err := io.ReadAll(resp.Body)
	c.Assert(err, qt.IsNil)
	var out map[string]any
	c.Assert(json.Unmarshal(body, &out), qt.IsNil)
	return out
}

func TestProcessScheduledPosts(t *testing.T) {
	tests := []struct {
		name   string
		result *service.CycleResult
		err    error
		status int
		body   map[string]any
	}{
		{
			name:   "success",
			result: &service.CycleResult{Found: 3, Processed: 2, Published: 1, Failed: 1, Skipped: 1},
			status: fiber.StatusOK,
			body:   map[string]any{"success": true, "processed": float64(2)},
		},
		{
			name:   "nothing due",
			result: &service.CycleResult{},
			status: fiber.StatusOK,
			body:   map[string]any{"success": true, "processed": float64(0)},
		},
		{
			name:   "cycle error",
			err:    errors.New("find due posts: connection refused"),
			status: fiber.StatusInternalServerError,
			body:   map[string]any{"error": "find due posts: connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

			h := NewDispatchHandler(&mockCycleRunner{run: func(_ context.Context, got time.Time) (*service.CycleResult, error) {
				c.Check(got, qt.Equals, now)
				return tt.result, tt.err
			}})
			h.now = func() time.Time { return now }

			app := fiber.New()
			app.Get("/api/process-scheduled-posts", h.ProcessScheduledPosts)
			app.Post("/api/process-scheduled-posts", h.ProcessScheduledPosts)

			for _, method := range []string{http.MethodGet, http.MethodPost} {
				resp, err := app.Test(httptest.NewRequest(method, "/api/process-scheduled-posts", nil))
				c.Assert(err, qt.IsNil)
				c.Assert(resp.StatusCode, qt.Equals, tt.status)
				c.Assert(readJSON(c, resp), qt.DeepEquals, tt.body)
			}
		})
	}
}
