package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
)

type ReplyRepository interface {
	Create(ctx context.Context, reply *models.ReplyQueueEntry) (int64, error)
	ExistsByReplyIGID(ctx context.Context, replyIGID string) (bool, error)
	ListByCommentID(ctx context.Context, commentID int64) ([]*models.ReplyQueueEntry, error)
}

type replyRepository struct {
	db *sql.DB
}

func NewReplyRepository(db *sql.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.ReplyQueueEntry) (int64, error) {
	query := `
		INSERT INTO reply_queue (comment_id, kind, reply_text, status, reply_ig_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, reply.CommentID, reply.Kind, reply.ReplyText,
		reply.Status, reply.ReplyIGID, reply.SentAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *replyRepository) ExistsByReplyIGID(ctx context.Context, replyIGID string) (bool, error) {
	query := `SELECT 1 FROM reply_queue WHERE reply_ig_id = $1`

	var result int
	err := r.db.QueryRowContext(ctx, query, replyIGID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return result == 1, nil
}

func (r *replyRepository) ListByCommentID(ctx context.Context, commentID int64) ([]*models.ReplyQueueEntry, error) {
	query := `
		SELECT id, comment_id, kind, reply_text, status, reply_ig_id, sent_at, created_at
		FROM reply_queue
		WHERE comment_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, commentID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var replies []*models.ReplyQueueEntry
	for rows.Next() {
		var reply models.ReplyQueueEntry
		err := rows.Scan(&reply.ID, &reply.CommentID, &reply.Kind, &reply.ReplyText,
			&reply.Status, &reply.ReplyIGID, &reply.SentAt, &reply.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		replies = append(replies, &reply)
	}
	return replies, rows.Err()
}
