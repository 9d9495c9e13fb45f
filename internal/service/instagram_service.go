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
	"net/url"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

const (
	pollInterval      = 2 * time.Second
	maxPollAttempts   = 30
	carouselItemDelay = time.Second
	maxCarouselItems  = 10
	minCarouselItems  = 2
	containerFinished = "FINISHED"
	containerError    = "ERROR"
)

var ErrTokenExpired = errors.New("instagram access token expired")

type InstagramService interface {
	PublishPost(ctx context.Context, post *models.Post, account *models.SocialAccount) (string, int, error)
	RefreshToken(ctx context.Context, account *models.SocialAccount) error
}

type instagramService struct {
	cfg    config.Config
	p      repository.PostRepository
	a      repository.AssetRepository
	sa     repository.SocialAccountRepository
	ev     repository.EventRepository
	client *http.Client

	pollInterval time.Duration
	itemDelay    time.Duration
}

func NewInstagramService(
	cfg config.Config,
	p repository.PostRepository,
	a repository.AssetRepository,
	sa repository.SocialAccountRepository,
	ev repository.EventRepository) InstagramService {
	return &instagramService{
		cfg:          cfg,
		p:            p,
		a:            a,
		sa:           sa,
		ev:           ev,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		itemDelay:    carouselItemDelay,
	}
}

// PublishPost drives the container-create/poll/publish protocol for a post
// and records the outcome on the post row. The returned values are the new
// media id and the number of images published.
func (s *instagramService) PublishPost(ctx context.Context, post *models.Post, account *models.SocialAccount) (string, int, error) {
	if time.Now().After(account.TokenExpiresAt) {
		s.fail(ctx, post, ErrTokenExpired.Error())
		return "", 0, ErrTokenExpired
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		s.fail(ctx, post, "unable to decrypt access token")
		return "", 0, err
	}

	assets, err := s.a.ListByPostID(ctx, post.ID)
	if err != nil {
		s.fail(ctx, post, err.Error())
		return "", 0, fmt.Errorf("error fetching assets for PostID %d: %w", post.ID, err)
	}
	if len(assets) == 0 {
		err = fmt.Errorf("no assets found for PostID %d", post.ID)
		s.fail(ctx, post, err.Error())
		return "", 0, err
	}

	var mediaID string
	if post.PostType == models.PostTypeCarousel || len(assets) > 1 {
		mediaID, err = s.publishCarousel(ctx, post, account.AccountID, assets, accessToken)
	} else {
		mediaID, err = s.publishSingle(ctx, post, account.AccountID, assets[0], accessToken)
	}
	if err != nil {
		s.fail(ctx, post, err.Error())
		return "", 0, err
	}

	publishedAt := time.Now()
	if err := s.p.SetPublished(ctx, post.ID, mediaID, publishedAt); err != nil {
		return "", 0, fmt.Errorf("failed to update status: %w", err)
	}

	s.logEvent(ctx, post.UserID, models.EventLevelInfo,
		fmt.Sprintf("post %d published as %s (%d images)", post.ID, mediaID, len(assets)))

	return mediaID, len(assets), nil
}

func (s *instagramService) publishSingle(ctx context.Context, post *models.Post, accountID string, asset *models.Asset, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"image_url":    asset.PublicURL,
		"caption":      post.Caption,
		"access_token": accessToken,
	}

	containerID, err := s.createContainer(ctx, accountID, payload)
	if err != nil {
		return "", err
	}

	if err := s.waitForContainer(ctx, containerID, accessToken); err != nil {
		return "", err
	}

	return s.publishContainer(ctx, accountID, containerID, accessToken)
}

// publishCarousel creates one child container per asset in slide order, waits
// for all of them, then creates and publishes the parent container. Children
// already created when a later step fails are left behind upstream; the Graph
// API offers no way to delete them.
func (s *instagramService) publishCarousel(ctx context.Context, post *models.Post, accountID string, assets []*models.Asset, accessToken string) (string, error) {
	if len(assets) < minCarouselItems || len(assets) > maxCarouselItems {
		return "", fmt.Errorf("carousel must have between %d and %d images, got %d", minCarouselItems, maxCarouselItems, len(assets))
	}

	childIDs := make([]string, 0, len(assets))
	for i, asset := range assets {
		if i > 0 {
			time.Sleep(s.itemDelay)
		}

		payload := map[string]interface{}{
			"image_url":        asset.PublicURL,
			"is_carousel_item": true,
			"access_token":     accessToken,
		}
		childID, err := s.createContainer(ctx, accountID, payload)
		if err != nil {
			return "", fmt.Errorf("error creating carousel item %d: %w", i, err)
		}
		childIDs = append(childIDs, childID)
	}

	for i, childID := range childIDs {
		if err := s.waitForContainer(ctx, childID, accessToken); err != nil {
			return "", fmt.Errorf("carousel item %d: %w", i, err)
		}
	}

	payload := map[string]interface{}{
		"media_type":   "CAROUSEL",
		"caption":      post.Caption,
		"children":     childIDs,
		"access_token": accessToken,
	}
	parentID, err := s.createContainer(ctx, accountID, payload)
	if err != nil {
		return "", fmt.Errorf("error creating carousel container: %w", err)
	}

	if err := s.waitForContainer(ctx, parentID, accessToken); err != nil {
		return "", err
	}

	return s.publishContainer(ctx, accountID, parentID, accessToken)
}

func (s *instagramService) createContainer(ctx context.Context, accountID string, payload map[string]interface{}) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/media", s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, accountID)

	result, err := s.postGraph(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no container ID returned from Instagram")
	}
	return result.ID, nil
}

// waitForContainer polls the container status every pollInterval until it
// reaches FINISHED. ERROR or exhausting the attempt budget is terminal.
func (s *instagramService) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	endpoint := fmt.Sprintf("%s/%s/%s?fields=status_code,status&access_token=%s",
		s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, containerID, url.QueryEscape(accessToken))

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.pollInterval)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
		if err != nil {
			return fmt.Errorf("error creating request: %w", err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request error: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("error reading response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return graphError(resp.StatusCode, respBody)
		}

		var status transfer.ContainerStatus
		if err := json.Unmarshal(respBody, &status); err != nil {
			return fmt.Errorf("error parsing container status: %w", err)
		}

		switch status.StatusCode {
		case containerFinished:
			return nil
		case containerError:
			return fmt.Errorf("container %s entered ERROR status: %s", containerID, status.Status)
		}
	}

	return fmt.Errorf("container %s not ready after %d attempts", containerID, maxPollAttempts)
}

func (s *instagramService) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/media_publish", s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, accountID)
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	result, err := s.postGraph(ctx, endpoint, payload)
	if err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no media ID returned from Instagram")
	}
	return result.ID, nil
}

type graphIDResponse struct {
	ID string `json:"id"`
}

func (s *instagramService) postGraph(ctx context.Context, endpoint string, payload map[string]interface{}) (*graphIDResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, graphError(resp.StatusCode, respBody)
	}

	var result graphIDResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	return &result, nil
}

// graphError surfaces the upstream error message when the Graph API returns
// a structured error payload.
func graphError(statusCode int, body []byte) error {
	var errResp transfer.InstagramErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Errorf("instagram error (code %d): %s", errResp.Error.Code, errResp.Error.Message)
	}
	return fmt.Errorf("unexpected status code from Instagram: %d", statusCode)
}

func (s *instagramService) fail(ctx context.Context, post *models.Post, message string) {
	if err := s.p.SetFailed(ctx, post.ID, message); err != nil {
		slog.Info(err.Error())
	}
	s.logEvent(ctx, post.UserID, models.EventLevelError,
		fmt.Sprintf("post %d publish failed: %s", post.ID, message))
}

func (s *instagramService) logEvent(ctx context.Context, userID int64, level, message string) {
	event := &models.EventLog{
		UserID:  userID,
		Scope:   models.EventScopePublish,
		Level:   level,
		Message: message,
	}
	if _, err := s.ev.Create(ctx, event); err != nil {
		slog.Info(err.Error())
	}
}

// RefreshToken exchanges the stored long-lived token for a fresh one before
// it expires.
func (s *instagramService) RefreshToken(ctx context.Context, account *models.SocialAccount) error {
	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		s.cfg.GraphBaseURL, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return graphError(resp.StatusCode, respBody)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return err
	}

	encryptedToken, err := utils.Encrypt([]byte(result.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(time.Second * time.Duration(result.ExpiresIn))
	return s.sa.SetToken(ctx, account.ID, encryptedToken, expiresAt)
}
