package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	CountScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	UpdatePostStatus(ctx context.Context, status string, postID int64) error
	SetPublished(ctx context.Context, postID int64, igMediaID string, publishedAt time.Time) error
	SetFailed(ctx context.Context, postID int64, errorMessage string) error
	UpsertImported(ctx context.Context, post *models.Post) error
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, status, post_type, caption, scheduled_time, published_at,
		ig_media_id, permalink, error_message, collaborators, like_count, comments_count,
		saved_count, reach, impressions, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Status, &post.PostType, &post.Caption,
		&post.ScheduledTime, &post.PublishedAt, &post.IGMediaID, &post.Permalink,
		&post.ErrorMessage, pq.Array(&post.Collaborators), &post.LikeCount,
		&post.CommentsCount, &post.SavedCount, &post.Reach, &post.Impressions,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, status, post_type, caption, scheduled_time, collaborators)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	var err error

	args := []any{post.UserID, post.Status, post.PostType, post.Caption, post.ScheduledTime, pq.Array(post.Collaborators)}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) CountScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM posts
		WHERE user_id = $1 AND scheduled_time >= $2 AND scheduled_time < $3
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, from, to).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetPublished stores the returned media id together with the published
// status so a post never holds an ig_media_id in any other state.
func (r *postRepository) SetPublished(ctx context.Context, postID int64, igMediaID string, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			ig_media_id = $2,
			published_at = $3,
			error_message = '',
			updated_at = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, igMediaID, publishedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetFailed(ctx context.Context, postID int64, errorMessage string) error {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, errorMessage, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpsertImported writes a post discovered through the Graph API media
// listing. Re-imports update the existing row keyed by ig_media_id.
func (r *postRepository) UpsertImported(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (user_id, status, post_type, caption, published_at, ig_media_id,
			permalink, like_count, comments_count, saved_count, reach, impressions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (ig_media_id) WHERE ig_media_id <> ''
		DO UPDATE SET
			caption = EXCLUDED.caption,
			permalink = EXCLUDED.permalink,
			like_count = EXCLUDED.like_count,
			comments_count = EXCLUDED.comments_count,
			saved_count = EXCLUDED.saved_count,
			reach = EXCLUDED.reach,
			impressions = EXCLUDED.impressions,
			updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, query, post.UserID, models.PostStatusPublished,
		post.PostType, post.Caption, post.PublishedAt, post.IGMediaID, post.Permalink,
		post.LikeCount, post.CommentsCount, post.SavedCount, post.Reach, post.Impressions)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)

	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
