package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadFixture struct {
	svc      UploadService
	mock     sqlmock.Sqlmock
	posts    []*models.Post
	assets   []*models.Asset
	sessions *fakeSessionRepo
	caption  *fakeCaption
	storage  *fakeStorage
	events   *fakeEventRepo
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &uploadFixture{
		mock:     mock,
		sessions: newFakeSessionRepo(),
		caption:  &fakeCaption{caption: "generated caption #a #b #c"},
		storage:  &fakeStorage{},
		events:   &fakeEventRepo{},
	}

	pr := &fakePostRepo{
		create: func(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
			post.ID = int64(len(f.posts) + 1)
			f.posts = append(f.posts, post)
			return post.ID, nil
		},
	}
	ar := &fakeAssetRepo{
		create: func(ctx context.Context, tx *sql.Tx, asset *models.Asset) (int64, error) {
			f.assets = append(f.assets, asset)
			return int64(len(f.assets)), nil
		},
	}

	f.svc = NewUploadService(db, pr, ar, f.sessions, f.events,
		NewSettingsService(&fakeSettingsRepo{}), NewImageService(), f.caption,
		&fakeScheduler{slot: time.Now().Add(2 * time.Hour)}, f.storage)
	return f
}

func uploadFile(t *testing.T, name string) transfer.UploadFile {
	t.Helper()
	return transfer.UploadFile{
		Name:   name,
		Type:   "image/png",
		Base64: base64.StdEncoding.EncodeToString(pngBytes(t, 64, 64)),
	}
}

func TestHandleUpload_SingleImageCreatesScheduledPost(t *testing.T) {
	f := newUploadFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID:  1,
		Files:   []transfer.UploadFile{uploadFile(t, "a.png")},
		RawText: "beach day",
	})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, int64(1), result.PostID)
	assert.Greater(t, result.Delay, time.Duration(0))

	require.Len(t, f.posts, 1)
	post := f.posts[0]
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Equal(t, models.PostTypeSingle, post.PostType)
	assert.Equal(t, "generated caption #a #b #c", post.Caption)
	require.NotNil(t, post.ScheduledTime)

	require.Len(t, f.assets, 1)
	assert.Equal(t, 0, f.assets[0].DisplayOrder)
	assert.Contains(t, f.assets[0].StoragePath, "1/")
	assert.Len(t, f.storage.uploads, 1)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandleUpload_MultipleFilesBecomeCarousel(t *testing.T) {
	f := newUploadFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID: 1,
		Files:  []transfer.UploadFile{uploadFile(t, "a.png"), uploadFile(t, "b.png")},
	})
	require.NoError(t, err)

	assert.True(t, result.Completed)
	require.Len(t, f.posts, 1)
	assert.Equal(t, models.PostTypeCarousel, f.posts[0].PostType)

	require.Len(t, f.assets, 2)
	assert.Equal(t, 0, f.assets[0].DisplayOrder)
	assert.Equal(t, 1, f.assets[1].DisplayOrder)
}

func TestHandleUpload_TooManyLegacyFiles(t *testing.T) {
	f := newUploadFixture(t)

	files := make([]transfer.UploadFile, 4)
	for i := range files {
		files[i] = uploadFile(t, fmt.Sprintf("%d.png", i))
	}

	_, err := f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{UserID: 1, Files: files})
	assert.ErrorIs(t, err, ErrUploadValidation)
	assert.Empty(t, f.posts)
}

func TestHandleUpload_RequiresUserAndFiles(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		Files: []transfer.UploadFile{uploadFile(t, "a.png")},
	})
	assert.ErrorIs(t, err, ErrUploadValidation)

	_, err = f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{UserID: 1})
	assert.ErrorIs(t, err, ErrUploadValidation)
}

func TestHandleUpload_RejectsNonImagePayload(t *testing.T) {
	f := newUploadFixture(t)

	_, err := f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID: 1,
		Files: []transfer.UploadFile{{
			Name:   "notes.txt",
			Base64: base64.StdEncoding.EncodeToString([]byte("plain text, not pixels")),
		}},
	})
	assert.ErrorIs(t, err, ErrUploadValidation)

	_, err = f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID: 1,
		Files:  []transfer.UploadFile{{Name: "bad.png", Base64: "%%%not-base64%%%"}},
	})
	assert.ErrorIs(t, err, ErrUploadValidation)
}

func TestHandleUpload_CaptionFailureAbortsPost(t *testing.T) {
	f := newUploadFixture(t)
	f.caption.err = errors.New("completion endpoint down")

	_, err := f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID: 1,
		Files:  []transfer.UploadFile{uploadFile(t, "a.png")},
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUploadValidation)
	assert.Empty(t, f.posts)

	// the failure lands in the event log
	require.NotEmpty(t, f.events.events)
	assert.Equal(t, models.EventLevelError, f.events.events[0].Level)
}

func sessionRequest(t *testing.T, sessionID string, index, total int) *transfer.UploadRequest {
	t.Helper()
	return &transfer.UploadRequest{
		UserID:      1,
		Files:       []transfer.UploadFile{uploadFile(t, fmt.Sprintf("%d.png", index))},
		SessionID:   sessionID,
		ImageIndex:  &index,
		TotalImages: total,
		RawText:     "weekend trip",
	}
}

func TestHandleUpload_SessionAccumulatesThenCreatesOnePost(t *testing.T) {
	f := newUploadFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	for i := 0; i < 2; i++ {
		result, err := f.svc.HandleUpload(context.Background(), sessionRequest(t, "sess-1", i, 3))
		require.NoError(t, err)
		assert.False(t, result.Completed)
		assert.Zero(t, result.PostID)
		assert.Equal(t, fmt.Sprintf("Image %d of 3 received", i+1), result.Message)
	}
	assert.Empty(t, f.posts)

	result, err := f.svc.HandleUpload(context.Background(), sessionRequest(t, "sess-1", 2, 3))
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, int64(1), result.PostID)

	require.Len(t, f.posts, 1)
	assert.Equal(t, models.PostTypeCarousel, f.posts[0].PostType)
	require.Len(t, f.assets, 3)
	for i, asset := range f.assets {
		assert.Equal(t, i, asset.DisplayOrder)
	}
	assert.Equal(t, 1, f.caption.calls)
}

func TestHandleUpload_SessionFinalSlideOnlyOnce(t *testing.T) {
	f := newUploadFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.HandleUpload(context.Background(), sessionRequest(t, "sess-1", 0, 2))
	require.NoError(t, err)

	_, err = f.svc.HandleUpload(context.Background(), sessionRequest(t, "sess-1", 1, 2))
	require.NoError(t, err)
	require.Len(t, f.posts, 1)

	// replaying the final slide finds the session closed
	_, err = f.svc.HandleUpload(context.Background(), sessionRequest(t, "sess-1", 1, 2))
	assert.ErrorIs(t, err, ErrUploadValidation)
	assert.Len(t, f.posts, 1)
}

func TestHandleUpload_SessionValidation(t *testing.T) {
	f := newUploadFixture(t)

	// appending to a session that was never started
	idx := 1
	_, err := f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID:      1,
		Files:       []transfer.UploadFile{uploadFile(t, "a.png")},
		SessionID:   "ghost",
		ImageIndex:  &idx,
		TotalImages: 3,
	})
	assert.ErrorIs(t, err, ErrUploadValidation)

	// totalImages outside carousel bounds
	zero := 0
	_, err = f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID:      1,
		Files:       []transfer.UploadFile{uploadFile(t, "a.png")},
		SessionID:   "sess-2",
		ImageIndex:  &zero,
		TotalImages: 11,
	})
	assert.ErrorIs(t, err, ErrUploadValidation)

	// index out of range
	five := 5
	_, err = f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID:      1,
		Files:       []transfer.UploadFile{uploadFile(t, "a.png")},
		SessionID:   "sess-2",
		ImageIndex:  &five,
		TotalImages: 3,
	})
	assert.ErrorIs(t, err, ErrUploadValidation)

	// session calls carry exactly one file
	_, err = f.svc.HandleUpload(context.Background(), &transfer.UploadRequest{
		UserID:      1,
		Files:       []transfer.UploadFile{uploadFile(t, "a.png"), uploadFile(t, "b.png")},
		SessionID:   "sess-2",
		ImageIndex:  &zero,
		TotalImages: 3,
	})
	assert.ErrorIs(t, err, ErrUploadValidation)
}
