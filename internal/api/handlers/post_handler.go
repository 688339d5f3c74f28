package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/service"
	"github.com/maheshrc27/creatortask/internal/transfer"
)

// PostScheduler queues a delayed dispatch for one post.
type PostScheduler interface {
	SchedulePost(postID uuid.UUID, delay time.Duration) error
}

type PostHandler struct {
	s         service.PostService
	scheduler PostScheduler
}

// NewPostHandler wires the composer API. scheduler may be nil, in which case
// posts are only picked up by dispatch cycles.
func NewPostHandler(s service.PostService, scheduler PostScheduler) *PostHandler {
	return &PostHandler{s: s, scheduler: scheduler}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user")
	}

	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return errorJSON(c, fiber.StatusBadRequest, "Unable to parse body")
	}

	post, delay, err := h.s.CreatePost(c.UserContext(), userID, &pc)
	if err != nil {
		return errorJSON(c, errorStatus(err), err.Error())
	}

	if post.Status == models.PostStatusScheduled {
		h.schedule(post.ID, delay)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Invalid user")
	}

	posts, err := h.s.List(c.UserContext(), userID)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, "Unable to list posts")
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID, postID, ok := h.ids(c)
	if !ok {
		return nil
	}

	post, err := h.s.PostInfo(c.UserContext(), postID, userID)
	if err != nil {
		return errorJSON(c, errorStatus(err), err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ListAttempts(c *fiber.Ctx) error {
	userID, postID, ok := h.ids(c)
	if !ok {
		return nil
	}

	attempts, err := h.s.Attempts(c.UserContext(), postID, userID)
	if err != nil {
		return errorJSON(c, errorStatus(err), err.Error())
	}
	if attempts == nil {
		attempts = []*models.PostingHistory{}
	}

	return c.Status(fiber.StatusOK).JSON(attempts)
}

func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	userID, postID, ok := h.ids(c)
	if !ok {
		return nil
	}

	var req transfer.RetryRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "Unable to parse body")
		}
	}

	delay, err := h.s.Retry(c.UserContext(), postID, userID, req.ScheduledTime)
	if err != nil {
		return errorJSON(c, errorStatus(err), err.Error())
	}
	h.schedule(postID, delay)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post rescheduled",
	})
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID, postID, ok := h.ids(c)
	if !ok {
		return nil
	}

	if err := h.s.Remove(c.UserContext(), postID, userID); err != nil {
		return errorJSON(c, errorStatus(err), err.Error())
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ids reads the caller and the :id param. When it reports false the error
// response has already been written.
func (h *PostHandler) ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, bool) {
	userID, err := GetUserID(c)
	if err != nil {
		_ = errorJSON(c, fiber.StatusUnauthorized, "Invalid user")
		return uuid.Nil, uuid.Nil, false
	}
	postID, err := paramID(c)
	if err != nil {
		_ = errorJSON(c, fiber.StatusBadRequest, "Invalid post id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, postID, true
}

func (h *PostHandler) schedule(postID uuid.UUID, delay time.Duration) {
	if h.scheduler == nil {
		return
	}
	if err := h.scheduler.SchedulePost(postID, delay); err != nil {
		// the next dispatch cycle still picks the post up
		slog.Warn("unable to queue post dispatch", "post_id", postID, "error", err)
	}
}
