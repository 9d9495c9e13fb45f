package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postpilot/internal/queue"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

type UploadHandler struct {
	s           service.UploadService
	AsynqClient *asynq.Client
}

func NewUploadHandler(service service.UploadService, asynqClient *asynq.Client) *UploadHandler {
	return &UploadHandler{s: service, AsynqClient: asynqClient}
}

// Upload receives base64 images from the phone shortcut, either as a
// one-shot batch or as one slide of a carousel session.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	var req transfer.UploadRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(transfer.UploadResponse{
			Success: false,
			Error:   "Unable to parse json",
		})
	}

	result, err := h.s.HandleUpload(c.Context(), &req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrUploadValidation) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(transfer.UploadResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	if result.PostID != 0 {
		err = queue.EnqueuePost(h.AsynqClient, queue.PublishPostPayload{PostID: result.PostID}, result.Delay)
		if err != nil {
			slog.Error(err.Error())
			return c.Status(fiber.StatusInternalServerError).JSON(transfer.UploadResponse{
				Success: false,
				Error:   "Error scheduling post",
			})
		}
	}

	resp := transfer.UploadResponse{
		Success: true,
		PostID:  result.PostID,
		Message: result.Message,
	}
	if result.SessionID != "" && !result.Completed {
		resp.SessionID = result.SessionID
		resp.ImageIndex = &result.ImageIndex
		resp.TotalImages = result.TotalImages
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
