package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/creatortask/internal/storage"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	media       storage.Storage
	rabbitMQURL string
	dial        func(url string) error
}

func NewHealthHandler(db Pinger, media storage.Storage, rabbitMQURL string) *HealthHandler {
	return &HealthHandler{
		db:          db,
		media:       media,
		rabbitMQURL: rabbitMQURL,
		dial: func(url string) error {
			conn, err := amqp.Dial(url)
			if err != nil {
				return err
			}
			return conn.Close()
		},
	}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := fiber.Map{}
	status := "healthy"

	if err := h.db.PingContext(ctx); err != nil {
		checks["db"] = "unhealthy"
		status = "unhealthy"
	} else {
		checks["db"] = "ok"
	}

	if h.media != nil {
		if _, err := h.media.Exists(ctx, "__health__"); err != nil {
			checks["media"] = "unhealthy"
			status = "degraded"
		} else {
			checks["media"] = "ok"
		}
	} else {
		checks["media"] = "skipped"
	}

	if h.rabbitMQURL != "" {
		if err := h.dial(h.rabbitMQURL); err != nil {
			checks["rabbitmq"] = "unhealthy"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["rabbitmq"] = "ok"
		}
	} else {
		checks["rabbitmq"] = "skipped"
	}

	code := fiber.StatusOK
	if status == "unhealthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}
