package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postpilot/internal/service"
)

type CommentHandler struct {
	s service.CommentService
}

func NewCommentHandler(service service.CommentService) *CommentHandler {
	return &CommentHandler{s: service}
}

func (h *CommentHandler) FetchComments(c *fiber.Ctx) error {
	userID := GetUserID(c)

	result, err := h.s.FetchComments(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":     true,
		"total":       result.Total,
		"unreplied":   result.Unreplied,
		"media_count": result.MediaCount,
	})
}
