package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
)

type CaptionService interface {
	Generate(ctx context.Context, settings *models.Settings, imageURL, seedText string) (string, error)
}

type captionService struct {
	cfg    config.Config
	client *http.Client
}

func NewCaptionService(cfg config.Config) CaptionService {
	return &captionService{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate asks the completion endpoint for a caption and returns the raw
// model text verbatim. An empty response fails the whole upload; the caller
// must not retry.
func (s *captionService) Generate(ctx context.Context, settings *models.Settings, imageURL, seedText string) (string, error) {
	systemPrompt := s.buildSystemPrompt(settings)

	userParts := []chatContentPart{}
	if seedText != "" {
		userParts = append(userParts, chatContentPart{
			Type: "text",
			Text: fmt.Sprintf("Rewrite this as the caption: %s", seedText),
		})
	} else {
		userParts = append(userParts, chatContentPart{
			Type: "text",
			Text: "Write a caption for this image.",
		})
	}
	userParts = append(userParts, chatContentPart{
		Type:     "image_url",
		ImageURL: &struct {
			URL string `json:"url"`
		}{URL: imageURL},
	})

	payload := map[string]any{
		"model": s.cfg.AI.Model,
		"messages": []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userParts},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", s.cfg.AI.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AI.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code from completion endpoint: %d (%s)", resp.StatusCode, respBody)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", errors.New("empty caption returned from completion endpoint")
	}

	return result.Choices[0].Message.Content, nil
}

func (s *captionService) buildSystemPrompt(settings *models.Settings) string {
	var b strings.Builder
	b.WriteString("You write Instagram captions for a creator brand.\n")
	fmt.Fprintf(&b, "Tone: %s.\n", settings.Tone)
	if settings.StyleNotes != "" {
		fmt.Fprintf(&b, "Style notes: %s\n", settings.StyleNotes)
	}
	b.WriteString("If seed text is given, rewrite it in the brand voice; otherwise invent a caption from the image.\n")
	fmt.Fprintf(&b, "End the caption with between %d and %d relevant hashtags.\n", settings.HashtagMin, settings.HashtagMax)
	b.WriteString("Return only the caption text, nothing else.")
	return b.String()
}
