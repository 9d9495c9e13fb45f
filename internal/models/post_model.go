package models

import "time"

type Post struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Status        string     `db:"status" json:"status"`
	PostType      string     `db:"post_type" json:"post_type"` // single, carousel
	Caption       string     `db:"caption" json:"caption"`
	ScheduledTime *time.Time `db:"scheduled_time" json:"scheduled_time"`
	PublishedAt   *time.Time `db:"published_at" json:"published_at"`
	IGMediaID     string     `db:"ig_media_id" json:"ig_media_id"`
	Permalink     string     `db:"permalink" json:"permalink"`
	ErrorMessage  string     `db:"error_message" json:"error_message"`
	Collaborators []string   `db:"collaborators" json:"collaborators"`
	LikeCount     int        `db:"like_count" json:"like_count"`
	CommentsCount int        `db:"comments_count" json:"comments_count"`
	SavedCount    int        `db:"saved_count" json:"saved_count"`
	Reach         int        `db:"reach" json:"reach"`
	Impressions   int        `db:"impressions" json:"impressions"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type Asset struct {
	ID           int64     `db:"id" json:"id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	StoragePath  string    `db:"storage_path" json:"storage_path"`
	PublicURL    string    `db:"public_url" json:"public_url"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	PostStatusIdea           = "idea"
	PostStatusDraft          = "draft"
	PostStatusReadyForReview = "ready_for_review"
	PostStatusApproved       = "approved"
	PostStatusScheduled      = "scheduled"
	PostStatusPublished      = "published"
	PostStatusFailed         = "failed"
	PostStatusRejected       = "rejected"
)

const (
	PostTypeSingle   = "single"
	PostTypeCarousel = "carousel"
)
