package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

// ErrUploadValidation marks failures that should be rejected with a 4xx
// before any upstream call is made.
var ErrUploadValidation = errors.New("upload validation failed")

const (
	maxLegacyFiles   = 3
	maxSessionImages = 10
)

// UploadResult reports either a finished post or session progress.
type UploadResult struct {
	PostID      int64
	Delay       time.Duration
	SessionID   string
	ImageIndex  int
	TotalImages int
	Completed   bool
	Message     string
}

type UploadService interface {
	HandleUpload(ctx context.Context, req *transfer.UploadRequest) (*UploadResult, error)
}

type uploadService struct {
	db      *sql.DB
	pr      repository.PostRepository
	ar      repository.AssetRepository
	us      repository.UploadSessionRepository
	ev      repository.EventRepository
	ss      SettingsService
	img     ImageService
	caption CaptionService
	sched   SchedulerService
	storage ObjectStorage
}

func NewUploadService(
	db *sql.DB,
	pr repository.PostRepository,
	ar repository.AssetRepository,
	us repository.UploadSessionRepository,
	ev repository.EventRepository,
	ss SettingsService,
	img ImageService,
	caption CaptionService,
	sched SchedulerService,
	storage ObjectStorage) UploadService {
	return &uploadService{
		db:      db,
		pr:      pr,
		ar:      ar,
		us:      us,
		ev:      ev,
		ss:      ss,
		img:     img,
		caption: caption,
		sched:   sched,
		storage: storage,
	}
}

// HandleUpload accepts three request shapes: a single-shot post (one file,
// no session fields), a legacy multi-file post (2-3 files in one call) and a
// session-based carousel upload delivering one slide per call.
func (s *uploadService) HandleUpload(ctx context.Context, req *transfer.UploadRequest) (*UploadResult, error) {
	if req.UserID == 0 {
		return nil, fmt.Errorf("%w: userId is required", ErrUploadValidation)
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", ErrUploadValidation)
	}

	if req.SessionID != "" || req.ImageIndex != nil {
		return s.handleSessionUpload(ctx, req)
	}

	if len(req.Files) > maxLegacyFiles {
		return nil, fmt.Errorf("%w: at most %d files per request, use session uploads for longer carousels", ErrUploadValidation, maxLegacyFiles)
	}

	files := make([]models.UploadedFile, 0, len(req.Files))
	for _, f := range req.Files {
		uploaded, err := s.processFile(ctx, req.UserID, f)
		if err != nil {
			return nil, err
		}
		files = append(files, *uploaded)
	}

	postID, delay, err := s.createPost(ctx, req.UserID, files, req.RawText, req.Collaborators)
	if err != nil {
		return nil, err
	}

	return &UploadResult{PostID: postID, Delay: delay, Completed: true, Message: "Post scheduled successfully"}, nil
}

func (s *uploadService) handleSessionUpload(ctx context.Context, req *transfer.UploadRequest) (*UploadResult, error) {
	if req.SessionID == "" || req.ImageIndex == nil {
		return nil, fmt.Errorf("%w: sessionId and imageIndex are both required for session uploads", ErrUploadValidation)
	}
	if len(req.Files) != 1 {
		return nil, fmt.Errorf("%w: session uploads carry exactly one file per call", ErrUploadValidation)
	}
	if req.TotalImages < minCarouselItems || req.TotalImages > maxSessionImages {
		return nil, fmt.Errorf("%w: totalImages must be between %d and %d", ErrUploadValidation, minCarouselItems, maxSessionImages)
	}

	index := *req.ImageIndex
	if index < 0 || index >= req.TotalImages {
		return nil, fmt.Errorf("%w: imageIndex %d out of range", ErrUploadValidation, index)
	}

	uploaded, err := s.processFile(ctx, req.UserID, req.Files[0])
	if err != nil {
		return nil, err
	}

	if index == 0 {
		session := &models.UploadSession{
			SessionID:     req.SessionID,
			UserID:        req.UserID,
			UploadedFiles: []models.UploadedFile{*uploaded},
			RawText:       req.RawText,
			Collaborators: req.Collaborators,
			TotalImages:   req.TotalImages,
		}
		if err := s.us.Start(ctx, session); err != nil {
			s.logError(ctx, req.UserID, err)
			return nil, fmt.Errorf("error starting upload session: %w", err)
		}
	} else {
		err := s.us.Append(ctx, req.SessionID, req.UserID, *uploaded)
		if err != nil {
			if errors.Is(err, repository.ErrSessionNotFound) {
				return nil, fmt.Errorf("%w: no open session %s", ErrUploadValidation, req.SessionID)
			}
			s.logError(ctx, req.UserID, err)
			return nil, fmt.Errorf("error appending to upload session: %w", err)
		}
	}

	if index < req.TotalImages-1 {
		return &UploadResult{
			SessionID:   req.SessionID,
			ImageIndex:  index,
			TotalImages: req.TotalImages,
			Message:     fmt.Sprintf("Image %d of %d received", index+1, req.TotalImages),
		}, nil
	}

	// Final slide: close the session and create the post. Complete only
	// succeeds for one caller, so a duplicated final request can't create a
	// second post.
	session, err := s.us.Complete(ctx, req.SessionID, req.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: no open session %s", ErrUploadValidation, req.SessionID)
		}
		s.logError(ctx, req.UserID, err)
		return nil, fmt.Errorf("error completing upload session: %w", err)
	}

	postID, delay, err := s.createPost(ctx, req.UserID, session.UploadedFiles, session.RawText, session.Collaborators)
	if err != nil {
		return nil, err
	}

	return &UploadResult{PostID: postID, Delay: delay, Completed: true, Message: "Post scheduled successfully"}, nil
}

// processFile validates, normalizes and stores one uploaded image.
func (s *uploadService) processFile(ctx context.Context, userID int64, file transfer.UploadFile) (*models.UploadedFile, error) {
	raw, err := base64.StdEncoding.DecodeString(file.Base64)
	if err != nil {
		return nil, fmt.Errorf("%w: file %s is not valid base64", ErrUploadValidation, file.Name)
	}

	kind, err := filetype.Match(raw)
	if err != nil || (kind.Extension != "jpg" && kind.Extension != "jpeg" && kind.Extension != "png") {
		return nil, fmt.Errorf("%w: file %s is not a supported image", ErrUploadValidation, file.Name)
	}

	normalized, err := s.img.Normalize(raw)
	if err != nil {
		s.logError(ctx, userID, err)
		return nil, fmt.Errorf("error normalizing image: %w", err)
	}
	slog.Info(fmt.Sprintf("normalized %s: %d -> %d bytes", file.Name, normalized.OriginalSize, normalized.CompressedSize))

	key := fmt.Sprintf("%d/%s.jpg", userID, uuid.New())
	publicURL, err := s.storage.Upload(ctx, key, normalized.Data, "image/jpeg")
	if err != nil {
		s.logError(ctx, userID, err)
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	return &models.UploadedFile{StoragePath: key, PublicURL: publicURL}, nil
}

// createPost generates a caption, picks the next free publish slot and
// writes the post with its ordered assets in one transaction.
func (s *uploadService) createPost(ctx context.Context, userID int64, files []models.UploadedFile, rawText string, collaborators []string) (postID int64, delay time.Duration, err error) {
	if len(files) == 0 {
		return 0, 0, fmt.Errorf("%w: session holds no files", ErrUploadValidation)
	}

	settings := s.ss.GetOrDefault(ctx, userID)
	caption, err := s.caption.Generate(ctx, settings, files[0].PublicURL, rawText)
	if err != nil {
		s.logError(ctx, userID, err)
		return 0, 0, fmt.Errorf("error generating caption: %w", err)
	}

	scheduledTime := s.sched.FindNextFreeSlot(ctx, userID, time.Now())

	postType := models.PostTypeSingle
	if len(files) > 1 {
		postType = models.PostTypeCarousel
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		UserID:        userID,
		Status:        models.PostStatusScheduled,
		PostType:      postType,
		Caption:       caption,
		ScheduledTime: &scheduledTime,
		Collaborators: collaborators,
	}
	postID, err = s.pr.Create(ctx, tx, &post)
	if err != nil {
		s.logError(ctx, userID, err)
		return 0, 0, fmt.Errorf("error creating post: %w", err)
	}

	for i, f := range files {
		asset := models.Asset{
			PostID:       postID,
			UserID:       userID,
			StoragePath:  f.StoragePath,
			PublicURL:    f.PublicURL,
			DisplayOrder: i,
		}
		if _, err = s.ar.Create(ctx, tx, &asset); err != nil {
			s.logError(ctx, userID, err)
			return 0, 0, fmt.Errorf("error saving asset: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	delay = time.Until(scheduledTime)
	if delay < 0 {
		delay = 0
	}

	return postID, delay, nil
}

func (s *uploadService) logError(ctx context.Context, userID int64, err error) {
	event := &models.EventLog{
		UserID:  userID,
		Scope:   models.EventScopeUpload,
		Level:   models.EventLevelError,
		Message: err.Error(),
	}
	if _, logErr := s.ev.Create(ctx, event); logErr != nil {
		slog.Info(logErr.Error())
	}
}
