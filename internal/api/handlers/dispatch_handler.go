package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/creatortask/internal/service"
	"github.com/maheshrc27/creatortask/internal/transfer"
)

type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) (*service.CycleResult, error)
}

type DispatchHandler struct {
	d   CycleRunner
	now func() time.Time
}

func NewDispatchHandler(d CycleRunner) *DispatchHandler {
	return &DispatchHandler{d: d, now: time.Now}
}

// ProcessScheduledPosts runs one dispatch cycle for the external scheduler.
func (h *DispatchHandler) ProcessScheduledPosts(c *fiber.Ctx) error {
	result, err := h.d.RunCycle(c.UserContext(), h.now().UTC())
	if err != nil {
		slog.Error("dispatch cycle failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(transfer.DispatchResponse{
		Success:   true,
		Processed: result.Processed,
	})
}
