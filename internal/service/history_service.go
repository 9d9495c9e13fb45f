package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

const (
	ImportModeFull        = "full"
	ImportModeSyncRecent  = "sync_recent"
	ImportModeForceResync = "force_resync"

	importPageSize  = 50
	importPageDelay = 200 * time.Millisecond
)

type BestPerformer struct {
	IGMediaID string `json:"ig_media_id"`
	Permalink string `json:"permalink"`
	Score     int    `json:"score"`
}

type ImportResult struct {
	Mode             string         `json:"mode"`
	Synced           int            `json:"synced"`
	UnicornThreshold int            `json:"unicorn_threshold"`
	Best             *BestPerformer `json:"best,omitempty"`
}

type HistoryService interface {
	Import(ctx context.Context, userID int64, mode string) (*ImportResult, error)
}

type historyService struct {
	cfg    config.Config
	p      repository.PostRepository
	sa     repository.SocialAccountRepository
	client *http.Client

	pageDelay time.Duration
}

func NewHistoryService(cfg config.Config, p repository.PostRepository, sa repository.SocialAccountRepository) HistoryService {
	return &historyService{
		cfg:       cfg,
		p:         p,
		sa:        sa,
		client:    &http.Client{Timeout: 30 * time.Second},
		pageDelay: importPageDelay,
	}
}

// Import pulls the account's media history from the Graph API and upserts it
// into posts. Full imports walk multiple pages and attach insights;
// sync_recent is a single unattended page whose upstream failures degrade to
// a zero-synced success.
func (s *historyService) Import(ctx context.Context, userID int64, mode string) (*ImportResult, error) {
	account, err := s.sa.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.New("no connected instagram account")
	}

	accessToken, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	var maxItems int
	var withInsights bool
	switch mode {
	case ImportModeFull:
		maxItems = s.cfg.MaxImportItems
		withInsights = true
	case ImportModeSyncRecent:
		maxItems = s.cfg.RecentSyncLimit
	case ImportModeForceResync:
		maxItems = s.cfg.ForceResyncLimit
		withInsights = true
	default:
		return nil, fmt.Errorf("unknown import mode: %s", mode)
	}

	items, err := s.fetchMedia(ctx, accessToken, maxItems)
	if err != nil {
		if mode == ImportModeSyncRecent {
			slog.Info(err.Error())
			return &ImportResult{Mode: mode, Synced: 0}, nil
		}
		return nil, err
	}

	result := &ImportResult{Mode: mode}
	scores := make([]int, 0, len(items))

	for _, item := range items {
		var saved, reach, impressions int
		if withInsights {
			saved, reach, impressions = s.fetchInsights(ctx, item.ID, accessToken)
		}

		score := ViralityScore(item.LikeCount, item.CommentsCount, saved)
		scores = append(scores, score)

		post := &models.Post{
			UserID:        userID,
			PostType:      postTypeForMedia(item.MediaType),
			Caption:       item.Caption,
			IGMediaID:     item.ID,
			Permalink:     item.Permalink,
			LikeCount:     item.LikeCount,
			CommentsCount: item.CommentsCount,
			SavedCount:    saved,
			Reach:         reach,
			Impressions:   impressions,
		}
		if ts, err := time.Parse("2006-01-02T15:04:05-0700", item.Timestamp); err == nil {
			post.PublishedAt = &ts
		}

		if err := s.p.UpsertImported(ctx, post); err != nil {
			if mode == ImportModeSyncRecent {
				slog.Info(err.Error())
				continue
			}
			return nil, err
		}
		result.Synced++

		if result.Best == nil || score > result.Best.Score {
			result.Best = &BestPerformer{IGMediaID: item.ID, Permalink: item.Permalink, Score: score}
		}
	}

	result.UnicornThreshold = Percentile(scores, 0.99)
	return result, nil
}

func (s *historyService) fetchMedia(ctx context.Context, accessToken string, maxItems int) ([]transfer.MediaItem, error) {
	limit := importPageSize
	if maxItems < limit {
		limit = maxItems
	}

	endpoint := fmt.Sprintf("%s/%s/me/media?fields=id,caption,media_type,media_url,permalink,timestamp,like_count,comments_count&limit=%d&access_token=%s",
		s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, limit, url.QueryEscape(accessToken))

	var items []transfer.MediaItem
	for page := 0; endpoint != "" && len(items) < maxItems; page++ {
		if page > 0 {
			time.Sleep(s.pageDelay)
		}

		feed, err := s.getMediaPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if len(feed.Data) == 0 {
			break
		}

		for _, item := range feed.Data {
			if len(items) >= maxItems {
				break
			}
			items = append(items, item)
		}
		endpoint = feed.Paging.Next
	}

	return items, nil
}

func (s *historyService) getMediaPage(ctx context.Context, endpoint string) (*transfer.MediaListResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

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

	var feed transfer.MediaListResponse
	if err := json.Unmarshal(respBody, &feed); err != nil {
		return nil, fmt.Errorf("error parsing media list: %w", err)
	}
	return &feed, nil
}

// fetchInsights augments a media item with reach/saved/impressions. Insight
// failures are non-fatal; the raw engagement counts still get imported.
func (s *historyService) fetchInsights(ctx context.Context, mediaID, accessToken string) (saved, reach, impressions int) {
	endpoint := fmt.Sprintf("%s/%s/%s/insights?metric=reach,saved,impressions&access_token=%s",
		s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, mediaID, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return
	}

	var insights transfer.InsightsResponse
	if err := json.Unmarshal(respBody, &insights); err != nil {
		return
	}

	for _, metric := range insights.Data {
		if len(metric.Values) == 0 {
			continue
		}
		switch metric.Name {
		case "saved":
			saved = metric.Values[0].Value
		case "reach":
			reach = metric.Values[0].Value
		case "impressions":
			impressions = metric.Values[0].Value
		}
	}
	return
}

func postTypeForMedia(mediaType string) string {
	if mediaType == "CAROUSEL_ALBUM" {
		return models.PostTypeCarousel
	}
	return models.PostTypeSingle
}

// ViralityScore weights comments and saves above likes.
func ViralityScore(likes, comments, saved int) int {
	return likes + comments*3 + saved*2
}

// Percentile returns the score at percentile p (0..1) of the batch.
func Percentile(scores []int, p float64) int {
	if len(scores) == 0 {
		return 0
	}

	sorted := make([]int, len(scores))
	copy(sorted, scores)
	sort.Ints(sorted)

	idx := int(float64(len(sorted))*p+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
