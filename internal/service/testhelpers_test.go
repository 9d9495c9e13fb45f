package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

// Function-field fakes: only the hooks a test sets are exercised, everything
// else returns zero values.

type fakePostRepo struct {
	getByID        func(ctx context.Context, id int64) (*models.Post, error)
	create         func(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	getByUserID    func(ctx context.Context, userID int64) ([]*models.Post, error)
	checkByUserID  func(ctx context.Context, postID, userID int64) (bool, error)
	countScheduled func(ctx context.Context, userID int64, from, to time.Time) (int, error)
	updateStatus   func(ctx context.Context, status string, postID int64) error
	setPublished   func(ctx context.Context, postID int64, igMediaID string, publishedAt time.Time) error
	setFailed      func(ctx context.Context, postID int64, errorMessage string) error
	upsertImported func(ctx context.Context, post *models.Post) error
	remove         func(ctx context.Context, id int64) error
}

func (f *fakePostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	if f.getByID != nil {
		return f.getByID(ctx, id)
	}
	return nil, nil
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	if f.create != nil {
		return f.create(ctx, tx, post)
	}
	return 0, nil
}

func (f *fakePostRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	if f.getByUserID != nil {
		return f.getByUserID(ctx, userID)
	}
	return nil, nil
}

func (f *fakePostRepo) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	if f.checkByUserID != nil {
		return f.checkByUserID(ctx, postID, userID)
	}
	return false, nil
}

func (f *fakePostRepo) CountScheduledBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	if f.countScheduled != nil {
		return f.countScheduled(ctx, userID, from, to)
	}
	return 0, nil
}

func (f *fakePostRepo) UpdatePostStatus(ctx context.Context, status string, postID int64) error {
	if f.updateStatus != nil {
		return f.updateStatus(ctx, status, postID)
	}
	return nil
}

func (f *fakePostRepo) SetPublished(ctx context.Context, postID int64, igMediaID string, publishedAt time.Time) error {
	if f.setPublished != nil {
		return f.setPublished(ctx, postID, igMediaID, publishedAt)
	}
	return nil
}

func (f *fakePostRepo) SetFailed(ctx context.Context, postID int64, errorMessage string) error {
	if f.setFailed != nil {
		return f.setFailed(ctx, postID, errorMessage)
	}
	return nil
}

func (f *fakePostRepo) UpsertImported(ctx context.Context, post *models.Post) error {
	if f.upsertImported != nil {
		return f.upsertImported(ctx, post)
	}
	return nil
}

func (f *fakePostRepo) Remove(ctx context.Context, id int64) error {
	if f.remove != nil {
		return f.remove(ctx, id)
	}
	return nil
}

type fakeAssetRepo struct {
	create       func(ctx context.Context, tx *sql.Tx, asset *models.Asset) (int64, error)
	listByPostID func(ctx context.Context, postID int64) ([]*models.Asset, error)
}

func (f *fakeAssetRepo) Create(ctx context.Context, tx *sql.Tx, asset *models.Asset) (int64, error) {
	if f.create != nil {
		return f.create(ctx, tx, asset)
	}
	return 0, nil
}

func (f *fakeAssetRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.Asset, error) {
	if f.listByPostID != nil {
		return f.listByPostID(ctx, postID)
	}
	return nil, nil
}

func (f *fakeAssetRepo) Remove(ctx context.Context, id int64) error { return nil }

type fakeSocialAccountRepo struct {
	getByUserID func(ctx context.Context, userID int64) (*models.SocialAccount, error)
}

func (f *fakeSocialAccountRepo) Create(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	return 0, nil
}

func (f *fakeSocialAccountRepo) GetByUserID(ctx context.Context, userID int64) (*models.SocialAccount, error) {
	if f.getByUserID != nil {
		return f.getByUserID(ctx, userID)
	}
	return nil, nil
}

func (f *fakeSocialAccountRepo) ListExpiringBetween(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeSocialAccountRepo) ListAll(ctx context.Context) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeSocialAccountRepo) SetToken(ctx context.Context, id int64, accessToken string, expiresAt time.Time) error {
	return nil
}

func (f *fakeSocialAccountRepo) Remove(ctx context.Context, id int64) error { return nil }

// fakeEventRepo records every event it receives.
type fakeEventRepo struct {
	mu     sync.Mutex
	events []*models.EventLog
}

func (f *fakeEventRepo) Create(ctx context.Context, event *models.EventLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return int64(len(f.events)), nil
}

func (f *fakeEventRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.EventLog, error) {
	return nil, nil
}

// fakeSessionRepo keeps sessions in memory with the same not-found semantics
// as the SQL implementation.
type fakeSessionRepo struct {
	sessions map[string]*models.UploadSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.UploadSession)}
}

func (f *fakeSessionRepo) key(sessionID string, userID int64) string {
	return fmt.Sprintf("%s/%d", sessionID, userID)
}

func (f *fakeSessionRepo) Start(ctx context.Context, session *models.UploadSession) error {
	copied := *session
	copied.IsCompleted = false
	copied.ExpiresAt = time.Now().Add(models.UploadSessionTTL)
	f.sessions[f.key(session.SessionID, session.UserID)] = &copied
	return nil
}

func (f *fakeSessionRepo) Append(ctx context.Context, sessionID string, userID int64, file models.UploadedFile) error {
	session, ok := f.sessions[f.key(sessionID, userID)]
	if !ok || session.IsCompleted || time.Now().After(session.ExpiresAt) {
		return repository.ErrSessionNotFound
	}
	session.UploadedFiles = append(session.UploadedFiles, file)
	return nil
}

func (f *fakeSessionRepo) Complete(ctx context.Context, sessionID string, userID int64) (*models.UploadSession, error) {
	session, ok := f.sessions[f.key(sessionID, userID)]
	if !ok || session.IsCompleted || time.Now().After(session.ExpiresAt) {
		return nil, repository.ErrSessionNotFound
	}
	session.IsCompleted = true
	return session, nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, sessionID string, userID int64) (*models.UploadSession, error) {
	session, ok := f.sessions[f.key(sessionID, userID)]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

// fakeCommentRepo assigns ids by ig_comment_id so repeated upserts of the
// same comment hit the same row.
type fakeCommentRepo struct {
	byIGID map[string]*models.InstagramComment
	nextID int64
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{byIGID: make(map[string]*models.InstagramComment)}
}

func (f *fakeCommentRepo) Upsert(ctx context.Context, comment *models.InstagramComment) (int64, error) {
	if existing, ok := f.byIGID[comment.IGCommentID]; ok {
		comment.ID = existing.ID
		f.byIGID[comment.IGCommentID] = comment
		return existing.ID, nil
	}
	f.nextID++
	comment.ID = f.nextID
	f.byIGID[comment.IGCommentID] = comment
	return comment.ID, nil
}

func (f *fakeCommentRepo) GetByIGCommentID(ctx context.Context, igCommentID string) (*models.InstagramComment, error) {
	return f.byIGID[igCommentID], nil
}

func (f *fakeCommentRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.InstagramComment, error) {
	return nil, nil
}

func (f *fakeCommentRepo) CountUnreplied(ctx context.Context, userID int64) (int, error) {
	return 0, nil
}

type fakeReplyRepo struct {
	entries []*models.ReplyQueueEntry
}

func (f *fakeReplyRepo) Create(ctx context.Context, reply *models.ReplyQueueEntry) (int64, error) {
	f.entries = append(f.entries, reply)
	return int64(len(f.entries)), nil
}

func (f *fakeReplyRepo) ExistsByReplyIGID(ctx context.Context, replyIGID string) (bool, error) {
	for _, e := range f.entries {
		if e.ReplyIGID == replyIGID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReplyRepo) ListByCommentID(ctx context.Context, commentID int64) ([]*models.ReplyQueueEntry, error) {
	return nil, nil
}

type fakeSettingsRepo struct {
	settings *models.Settings
}

func (f *fakeSettingsRepo) GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error) {
	if f.settings == nil {
		return nil, false, nil
	}
	return f.settings, true, nil
}

func (f *fakeSettingsRepo) Create(ctx context.Context, settings *models.Settings) (int64, error) {
	f.settings = settings
	return 1, nil
}

func (f *fakeSettingsRepo) UpdateSettings(ctx context.Context, s *models.Settings, userID int64) error {
	f.settings = s
	return nil
}

// fakeStorage records uploads and hands back deterministic URLs.
type fakeStorage struct {
	uploads []string
	err     error
}

func (f *fakeStorage) Upload(ctx context.Context, key string, file []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, key)
	return "https://cdn.example.com/" + key, nil
}

type fakeCaption struct {
	caption string
	err     error
	calls   int
}

func (f *fakeCaption) Generate(ctx context.Context, settings *models.Settings, imageURL, seedText string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.caption, nil
}

type fakeScheduler struct {
	slot time.Time
}

func (f *fakeScheduler) FindNextFreeSlot(ctx context.Context, userID int64, now time.Time) time.Time {
	if f.slot.IsZero() {
		return now.Add(time.Hour)
	}
	return f.slot
}
