package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type PublishHandler struct {
	pr repository.PostRepository
	sa repository.SocialAccountRepository
	ig service.InstagramService
}

func NewPublishHandler(pr repository.PostRepository, sa repository.SocialAccountRepository, ig service.InstagramService) *PublishHandler {
	return &PublishHandler{pr: pr, sa: sa, ig: ig}
}

// Publish pushes a scheduled post to Instagram immediately instead of
// waiting for its queued task.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Unable to parse json",
		})
	}

	isValid, err := h.pr.CheckByUserID(c.Context(), req.PostID, userID)
	if err != nil || !isValid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Post doesn't exist",
		})
	}

	post, err := h.pr.GetByID(c.Context(), req.PostID)
	if err != nil || post == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Post doesn't exist",
		})
	}

	account, err := h.sa.GetByUserID(c.Context(), userID)
	if err != nil || account == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No connected Instagram account",
		})
	}

	mediaID, imageCount, err := h.ig.PublishPost(c.Context(), post, account)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":     true,
		"ig_media_id": mediaID,
		"image_count": imageCount,
	})
}
