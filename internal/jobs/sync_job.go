package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/service"
)

type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	ig service.InstagramService
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	ig service.InstagramService) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		ig: ig,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.sr.ListExpiringBetween(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.ig.RefreshToken(ctx, acc); err != nil {
				slog.Info("Unable to refresh token for Instagram")
			}
		}(acc)
	}

	wg.Wait()
}

// SyncJob pulls the latest media stats and comments for every connected
// account so engagement data stays fresh without manual imports.
type SyncJob struct {
	sr       repository.SocialAccountRepository
	us       repository.UploadSessionRepository
	history  service.HistoryService
	comments service.CommentService
}

func NewSyncJob(
	sr repository.SocialAccountRepository,
	us repository.UploadSessionRepository,
	history service.HistoryService,
	comments service.CommentService) *SyncJob {
	return &SyncJob{
		sr:       sr,
		us:       us,
		history:  history,
		comments: comments,
	}
}

func (c *SyncJob) SyncRecent() {
	ctx := context.Background()

	accounts, err := c.sr.ListAll(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, acc := range accounts {
		if _, err := c.history.Import(ctx, acc.UserID, service.ImportModeSyncRecent); err != nil {
			slog.Info(err.Error())
		}

		if _, err := c.comments.FetchComments(ctx, acc.UserID); err != nil {
			slog.Info(err.Error())
		}
	}
}

// CleanupSessions drops upload sessions that passed their TTL without
// receiving all of their images.
func (c *SyncJob) CleanupSessions() {
	ctx := context.Background()

	removed, err := c.us.DeleteExpired(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	if removed > 0 {
		slog.Info("Removed expired upload sessions", "count", removed)
	}
}
