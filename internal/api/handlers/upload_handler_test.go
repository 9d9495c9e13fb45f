package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/api/middleware"
	"github.com/maheshrc27/postpilot/internal/service"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploadService struct {
	result *service.UploadResult
	err    error
	got    *transfer.UploadRequest
}

func (s *stubUploadService) HandleUpload(ctx context.Context, req *transfer.UploadRequest) (*service.UploadResult, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func uploadApp(stub *stubUploadService, apiKey string) *fiber.App {
	app := fiber.New()
	cfg := config.Config{ShortcutAPIKey: apiKey}
	h := NewUploadHandler(stub, nil)
	app.Post("/upload", middleware.ShortcutAuth(cfg), h.Upload)
	return app
}

func postUpload(t *testing.T, app *fiber.App, apiKey string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/upload", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestUpload_RejectsMissingAPIKey(t *testing.T) {
	app := uploadApp(&stubUploadService{}, "secret")

	resp := postUpload(t, app, "", transfer.UploadRequest{UserID: 1})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = postUpload(t, app, "wrong", transfer.UploadRequest{UserID: 1})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpload_UnconfiguredKeyIsServerError(t *testing.T) {
	app := uploadApp(&stubUploadService{}, "")

	resp := postUpload(t, app, "anything", transfer.UploadRequest{UserID: 1})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestUpload_ValidationErrorIsBadRequest(t *testing.T) {
	stub := &stubUploadService{err: fmt.Errorf("%w: no files provided", service.ErrUploadValidation)}
	app := uploadApp(stub, "secret")

	resp := postUpload(t, app, "secret", transfer.UploadRequest{UserID: 1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body transfer.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "no files provided")
}

func TestUpload_SessionProgressResponse(t *testing.T) {
	stub := &stubUploadService{result: &service.UploadResult{
		SessionID:   "sess-1",
		ImageIndex:  1,
		TotalImages: 3,
		Message:     "Image 2 of 3 received",
	}}
	app := uploadApp(stub, "secret")

	idx := 1
	resp := postUpload(t, app, "secret", transfer.UploadRequest{
		UserID:      1,
		SessionID:   "sess-1",
		ImageIndex:  &idx,
		TotalImages: 3,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body transfer.UploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "sess-1", body.SessionID)
	require.NotNil(t, body.ImageIndex)
	assert.Equal(t, 1, *body.ImageIndex)
	assert.Equal(t, 3, body.TotalImages)
	assert.Equal(t, "Image 2 of 3 received", body.Message)
	assert.Zero(t, body.PostID)

	require.NotNil(t, stub.got)
	assert.Equal(t, int64(1), stub.got.UserID)
}
