package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
)

// ErrSessionNotFound is returned when no open, unexpired session exists for
// the given key.
var ErrSessionNotFound = errors.New("upload session not found")

type UploadSessionRepository interface {
	Start(ctx context.Context, session *models.UploadSession) error
	Append(ctx context.Context, sessionID string, userID int64, file models.UploadedFile) error
	Complete(ctx context.Context, sessionID string, userID int64) (*models.UploadSession, error)
	Get(ctx context.Context, sessionID string, userID int64) (*models.UploadSession, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type uploadSessionRepository struct {
	db *sql.DB
}

func NewUploadSessionRepository(db *sql.DB) UploadSessionRepository {
	return &uploadSessionRepository{db: db}
}

// Start creates the session row, replacing any leftover session with the
// same key so a retried first slide begins a fresh accumulation.
func (r *uploadSessionRepository) Start(ctx context.Context, session *models.UploadSession) error {
	files, err := json.Marshal(session.UploadedFiles)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		INSERT INTO upload_sessions (session_id, user_id, uploaded_files, raw_text, collaborators, total_images, is_completed, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
		ON CONFLICT (session_id, user_id)
		DO UPDATE SET
			uploaded_files = EXCLUDED.uploaded_files,
			raw_text = EXCLUDED.raw_text,
			collaborators = EXCLUDED.collaborators,
			total_images = EXCLUDED.total_images,
			is_completed = false,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
	`
	_, err = r.db.ExecContext(ctx, query, session.SessionID, session.UserID, files,
		session.RawText, pq.Array(session.Collaborators), session.TotalImages,
		time.Now().Add(models.UploadSessionTTL))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Append adds one file to an open session and refreshes its expiry. The
// whole read-modify-write happens inside a single UPDATE, so concurrent
// appends to the same session serialize at the row level and never lose a
// slide. Slide order is the order in which the appends land.
func (r *uploadSessionRepository) Append(ctx context.Context, sessionID string, userID int64, file models.UploadedFile) error {
	encoded, err := json.Marshal(file)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `
		UPDATE upload_sessions
		SET uploaded_files = uploaded_files || $3::jsonb,
			expires_at = $4,
			updated_at = now()
		WHERE session_id = $1 AND user_id = $2 AND is_completed = false AND expires_at > now()
	`
	result, err := r.db.ExecContext(ctx, query, sessionID, userID, encoded, time.Now().Add(models.UploadSessionTTL))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Complete closes the session and hands back its final state. Only one
// caller can ever win the conditional update, so the post a completed
// session triggers is created exactly once.
func (r *uploadSessionRepository) Complete(ctx context.Context, sessionID string, userID int64) (*models.UploadSession, error) {
	query := `
		UPDATE upload_sessions
		SET is_completed = true,
			updated_at = now()
		WHERE session_id = $1 AND user_id = $2 AND is_completed = false AND expires_at > now()
		RETURNING session_id, user_id, uploaded_files, raw_text, collaborators, total_images, is_completed, expires_at, created_at, updated_at
	`

	session, err := r.scanSession(r.db.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	return session, nil
}

func (r *uploadSessionRepository) Get(ctx context.Context, sessionID string, userID int64) (*models.UploadSession, error) {
	query := `
		SELECT session_id, user_id, uploaded_files, raw_text, collaborators, total_images, is_completed, expires_at, created_at, updated_at
		FROM upload_sessions
		WHERE session_id = $1 AND user_id = $2
	`

	session, err := r.scanSession(r.db.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return session, nil
}

func (r *uploadSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM upload_sessions WHERE expires_at <= now()`
	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return result.RowsAffected()
}

func (r *uploadSessionRepository) scanSession(row *sql.Row) (*models.UploadSession, error) {
	var session models.UploadSession
	var files []byte

	err := row.Scan(&session.SessionID, &session.UserID, &files, &session.RawText,
		pq.Array(&session.Collaborators), &session.TotalImages, &session.IsCompleted,
		&session.ExpiresAt, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(files, &session.UploadedFiles); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &session, nil
}
