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
	"time"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/maheshrc27/postpilot/pkg/utils"
)

const (
	commentMediaDelay    = 100 * time.Millisecond
	commentMediaPageSize = 50
)

type CommentSyncResult struct {
	Total      int `json:"total"`
	Unreplied  int `json:"unreplied"`
	MediaCount int `json:"media_count"`
}

type CommentService interface {
	FetchComments(ctx context.Context, userID int64) (*CommentSyncResult, error)
}

type commentService struct {
	cfg    config.Config
	cr     repository.CommentRepository
	rr     repository.ReplyRepository
	sa     repository.SocialAccountRepository
	sr     repository.SettingsRepository
	client *http.Client

	mediaDelay time.Duration
}

func NewCommentService(
	cfg config.Config,
	cr repository.CommentRepository,
	rr repository.ReplyRepository,
	sa repository.SocialAccountRepository,
	sr repository.SettingsRepository) CommentService {
	return &commentService{
		cfg:        cfg,
		cr:         cr,
		rr:         rr,
		sa:         sa,
		sr:         sr,
		client:     &http.Client{Timeout: 30 * time.Second},
		mediaDelay: commentMediaDelay,
	}
}

// FetchComments walks recent media within the configured window, upserts
// every received comment and backfills replies the account already sent.
func (s *commentService) FetchComments(ctx context.Context, userID int64) (*CommentSyncResult, error) {
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

	windowDays := models.DefaultCommentWindowDays
	if settings, found, err := s.sr.GetByUserID(ctx, userID); err == nil && found && settings.CommentWindowDays > 0 {
		windowDays = settings.CommentWindowDays
	}
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	mediaIDs, err := s.listRecentMedia(ctx, accessToken, cutoff)
	if err != nil {
		return nil, err
	}

	result := &CommentSyncResult{MediaCount: len(mediaIDs)}

	for i, mediaID := range mediaIDs {
		if i > 0 {
			time.Sleep(s.mediaDelay)
		}

		comments, err := s.fetchMediaComments(ctx, mediaID, accessToken)
		if err != nil {
			slog.Info(err.Error())
			continue
		}

		for _, item := range comments {
			if s.isOwnComment(account, item.From.ID, item.Username) {
				continue
			}

			isReplied := false
			for _, reply := range item.Replies.Data {
				if s.isOwnComment(account, reply.From.ID, reply.Username) {
					isReplied = true
					break
				}
			}

			comment := &models.InstagramComment{
				UserID:            userID,
				IGCommentID:       item.ID,
				IGMediaID:         mediaID,
				CommenterUsername: item.Username,
				CommentText:       item.Text,
				CommentTimestamp:  parseGraphTimestamp(item.Timestamp),
				IsReplied:         isReplied,
			}
			commentID, err := s.cr.Upsert(ctx, comment)
			if err != nil {
				slog.Info(err.Error())
				continue
			}

			result.Total++
			if !isReplied {
				result.Unreplied++
			}

			for _, reply := range item.Replies.Data {
				if !s.isOwnComment(account, reply.From.ID, reply.Username) {
					continue
				}
				if err := s.importSentReply(ctx, commentID, reply); err != nil {
					slog.Info(err.Error())
				}
			}
		}
	}

	return result, nil
}

// importSentReply records a reply discovered via the API that isn't in the
// reply log yet, back-dated to its original send timestamp.
func (s *commentService) importSentReply(ctx context.Context, commentID int64, reply transfer.CommentReply) error {
	exists, err := s.rr.ExistsByReplyIGID(ctx, reply.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	sentAt := parseGraphTimestamp(reply.Timestamp)
	entry := &models.ReplyQueueEntry{
		CommentID: commentID,
		Kind:      models.ReplyKindImported,
		ReplyText: reply.Text,
		Status:    models.ReplyStatusImported,
		ReplyIGID: reply.ID,
		SentAt:    &sentAt,
	}
	_, err = s.rr.Create(ctx, entry)
	return err
}

func (s *commentService) isOwnComment(account *models.SocialAccount, fromID, username string) bool {
	if fromID != "" && fromID == account.AccountID {
		return true
	}
	return username != "" && username == account.AccountUsername
}

// listRecentMedia pages through the media listing until items fall outside
// the comment window. The Graph API returns media newest first.
func (s *commentService) listRecentMedia(ctx context.Context, accessToken string, cutoff time.Time) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s/me/media?fields=id,timestamp&limit=%d&access_token=%s",
		s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, commentMediaPageSize, url.QueryEscape(accessToken))

	var mediaIDs []string
	for page := 0; endpoint != ""; page++ {
		if page > 0 {
			time.Sleep(s.mediaDelay)
		}

		respBody, err := s.getGraph(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var feed transfer.MediaListResponse
		if err := json.Unmarshal(respBody, &feed); err != nil {
			return nil, fmt.Errorf("error parsing media list: %w", err)
		}
		if len(feed.Data) == 0 {
			break
		}

		reachedCutoff := false
		for _, item := range feed.Data {
			if parseGraphTimestamp(item.Timestamp).Before(cutoff) {
				reachedCutoff = true
				break
			}
			mediaIDs = append(mediaIDs, item.ID)
		}
		if reachedCutoff {
			break
		}
		endpoint = feed.Paging.Next
	}

	return mediaIDs, nil
}

func (s *commentService) fetchMediaComments(ctx context.Context, mediaID, accessToken string) ([]transfer.CommentItem, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/comments?fields=id,text,username,timestamp,from,replies{id,text,username,timestamp,from}&access_token=%s",
		s.cfg.GraphBaseURL, s.cfg.GraphAPIVersion, mediaID, url.QueryEscape(accessToken))

	var comments []transfer.CommentItem
	for endpoint != "" {
		respBody, err := s.getGraph(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var page transfer.CommentListResponse
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("error parsing comments: %w", err)
		}

		comments = append(comments, page.Data...)
		endpoint = page.Paging.Next
	}

	return comments, nil
}

func (s *commentService) getGraph(ctx context.Context, endpoint string) ([]byte, error) {
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
	return respBody, nil
}

func parseGraphTimestamp(value string) time.Time {
	ts, err := time.Parse("2006-01-02T15:04:05-0700", value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
