package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
)

type CommentRepository interface {
	Upsert(ctx context.Context, comment *models.InstagramComment) (int64, error)
	GetByIGCommentID(ctx context.Context, igCommentID string) (*models.InstagramComment, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.InstagramComment, error)
	CountUnreplied(ctx context.Context, userID int64) (int, error)
}

type commentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Upsert inserts a comment keyed by its platform id; re-imports update the
// mutable fields instead of duplicating the row.
func (r *commentRepository) Upsert(ctx context.Context, comment *models.InstagramComment) (int64, error) {
	query := `
		INSERT INTO instagram_comments (user_id, ig_comment_id, ig_media_id, commenter_username,
			comment_text, comment_timestamp, is_replied)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ig_comment_id)
		DO UPDATE SET
			comment_text = EXCLUDED.comment_text,
			is_replied = EXCLUDED.is_replied
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, comment.UserID, comment.IGCommentID,
		comment.IGMediaID, comment.CommenterUsername, comment.CommentText,
		comment.CommentTimestamp, comment.IsReplied).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *commentRepository) GetByIGCommentID(ctx context.Context, igCommentID string) (*models.InstagramComment, error) {
	query := `
		SELECT id, user_id, ig_comment_id, ig_media_id, commenter_username, comment_text,
			comment_timestamp, is_replied, sentiment_score, is_critical, created_at
		FROM instagram_comments
		WHERE ig_comment_id = $1
	`

	var c models.InstagramComment
	err := r.db.QueryRowContext(ctx, query, igCommentID).Scan(&c.ID, &c.UserID,
		&c.IGCommentID, &c.IGMediaID, &c.CommenterUsername, &c.CommentText,
		&c.CommentTimestamp, &c.IsReplied, &c.SentimentScore, &c.IsCritical, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &c, nil
}

func (r *commentRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.InstagramComment, error) {
	query := `
		SELECT id, user_id, ig_comment_id, ig_media_id, commenter_username, comment_text,
			comment_timestamp, is_replied, sentiment_score, is_critical, created_at
		FROM instagram_comments
		WHERE user_id = $1
		ORDER BY comment_timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var comments []*models.InstagramComment
	for rows.Next() {
		var c models.InstagramComment
		err := rows.Scan(&c.ID, &c.UserID, &c.IGCommentID, &c.IGMediaID, &c.CommenterUsername,
			&c.CommentText, &c.CommentTimestamp, &c.IsReplied, &c.SentimentScore, &c.IsCritical, &c.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *commentRepository) CountUnreplied(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM instagram_comments WHERE user_id = $1 AND is_replied = false`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}
