package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error)
	GetOrDefault(ctx context.Context, userID int64) *models.Settings
	UpdateSettings(ctx context.Context, userID int64, update *models.Settings) error
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{sr: sr}
}

func (s *settingsService) GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error) {
	settings, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !isExist {
		err = errors.New("settings for given user don't exist")
		slog.Info(err.Error())
		return nil, err
	}

	return settings, nil
}

// GetOrDefault never fails; callers that only need brand-voice parameters
// fall back to the defaults when the user hasn't saved settings yet.
func (s *settingsService) GetOrDefault(ctx context.Context, userID int64) *models.Settings {
	settings, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err == nil && isExist {
		return settings
	}
	return &models.Settings{
		UserID:            userID,
		Tone:              "friendly",
		HashtagMin:        3,
		HashtagMax:        8,
		CommentWindowDays: models.DefaultCommentWindowDays,
	}
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID int64, update *models.Settings) error {
	if update.HashtagMin < 0 || update.HashtagMax < update.HashtagMin {
		err := errors.New("invalid hashtag range")
		slog.Info(err.Error())
		return err
	}
	if update.CommentWindowDays <= 0 {
		update.CommentWindowDays = models.DefaultCommentWindowDays
	}

	_, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}

	if !isExist {
		update.UserID = userID
		_, err = s.sr.Create(ctx, update)
		return err
	}

	return s.sr.UpdateSettings(ctx, update, userID)
}
