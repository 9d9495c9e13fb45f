package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
)

type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error)
	Create(ctx context.Context, settings *models.Settings) (int64, error)
	UpdateSettings(ctx context.Context, s *models.Settings, userID int64) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

const settingsColumns = `id, user_id, tone, style_notes, hashtag_min, hashtag_max, comment_window_days, created_at, updated_at`

func (r *settingsRepository) Create(ctx context.Context, settings *models.Settings) (int64, error) {
	query := `
		INSERT INTO settings (user_id, tone, style_notes, hashtag_min, hashtag_max, comment_window_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, settings.UserID, settings.Tone, settings.StyleNotes,
		settings.HashtagMin, settings.HashtagMax, settings.CommentWindowDays).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error) {
	query := `SELECT ` + settingsColumns + ` FROM settings WHERE user_id = $1`
	row := r.db.QueryRowContext(ctx, query, userID)

	var settings models.Settings
	err := row.Scan(&settings.ID, &settings.UserID, &settings.Tone, &settings.StyleNotes,
		&settings.HashtagMin, &settings.HashtagMax, &settings.CommentWindowDays,
		&settings.CreatedAt, &settings.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &settings, true, nil
}

func (r *settingsRepository) UpdateSettings(ctx context.Context, s *models.Settings, userID int64) error {
	query := `
		UPDATE settings
		SET tone = $1,
			style_notes = $2,
			hashtag_min = $3,
			hashtag_max = $4,
			comment_window_days = $5,
			updated_at = $6
		WHERE user_id = $7
	`
	_, err := r.db.ExecContext(ctx, query, s.Tone, s.StyleNotes, s.HashtagMin, s.HashtagMax,
		s.CommentWindowDays, time.Now(), userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
