package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/creatortask/internal/repository"
	"github.com/maheshrc27/creatortask/internal/service"
)

func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, _ := c.Locals("user_id").(string)
	return uuid.Parse(userID)
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// errorStatus maps service and repository errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidPost):
		return fiber.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repository.ErrStatusConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
