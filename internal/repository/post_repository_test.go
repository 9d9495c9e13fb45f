package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postRepo(t *testing.T) (PostRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostRepository(db), mock
}

func TestPostSetPublished_ClearsError(t *testing.T) {
	repo, mock := postRepo(t)
	publishedAt := time.Now()

	mock.ExpectExec(`UPDATE posts`).
		WithArgs(models.PostStatusPublished, "media_42", publishedAt, sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetPublished(context.Background(), 7, "media_42", publishedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostSetFailed(t *testing.T) {
	repo, mock := postRepo(t)

	mock.ExpectExec(`UPDATE posts`).
		WithArgs(models.PostStatusFailed, "container ERROR", sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetFailed(context.Background(), 7, "container ERROR")
	require.NoError(t, err)
}

func TestPostUpsertImported_KeyedByMediaID(t *testing.T) {
	repo, mock := postRepo(t)
	publishedAt := time.Now()

	post := &models.Post{
		UserID:        1,
		PostType:      models.PostTypeSingle,
		Caption:       "imported",
		PublishedAt:   &publishedAt,
		IGMediaID:     "m1",
		Permalink:     "https://instagram.com/p/m1",
		LikeCount:     10,
		CommentsCount: 2,
		SavedCount:    3,
		Reach:         500,
		Impressions:   700,
	}

	mock.ExpectExec(`INSERT INTO posts .+ ON CONFLICT \(ig_media_id\)`).
		WithArgs(int64(1), models.PostStatusPublished, models.PostTypeSingle, "imported",
			&publishedAt, "m1", "https://instagram.com/p/m1", 10, 2, 3, 500, 700).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.UpsertImported(context.Background(), post)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostCountScheduledBetween(t *testing.T) {
	repo, mock := postRepo(t)
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(int64(1), from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountScheduledBetween(context.Background(), 1, from, to)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPostGetByID_NoRowsMeansNil(t *testing.T) {
	repo, mock := postRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM posts`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	post, err := repo.GetByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestPostCreate_UsesTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostRepository(db)
	scheduled := time.Now().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs(int64(1), models.PostStatusScheduled, models.PostTypeCarousel, "caption",
			&scheduled, pq.Array([]string{"friend"})).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	id, err := repo.Create(context.Background(), tx, &models.Post{
		UserID:        1,
		Status:        models.PostStatusScheduled,
		PostType:      models.PostTypeCarousel,
		Caption:       "caption",
		ScheduledTime: &scheduled,
		Collaborators: []string{"friend"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
