package models

import "time"

type InstagramComment struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	IGCommentID       string    `db:"ig_comment_id" json:"ig_comment_id"`
	IGMediaID         string    `db:"ig_media_id" json:"ig_media_id"`
	CommenterUsername string    `db:"commenter_username" json:"commenter_username"`
	CommentText       string    `db:"comment_text" json:"comment_text"`
	CommentTimestamp  time.Time `db:"comment_timestamp" json:"comment_timestamp"`
	IsReplied         bool      `db:"is_replied" json:"is_replied"`
	SentimentScore    float64   `db:"sentiment_score" json:"sentiment_score"`
	IsCritical        bool      `db:"is_critical" json:"is_critical"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// ReplyQueueEntry records outgoing replies. Queued entries reference the
// local comment they answer; imported entries additionally carry the
// platform id of the reply discovered via the API (ReplyIGID), so the two
// origins never share a column.
type ReplyQueueEntry struct {
	ID        int64      `db:"id" json:"id"`
	CommentID int64      `db:"comment_id" json:"comment_id"`
	Kind      string     `db:"kind" json:"kind"` // queued, imported
	ReplyText string     `db:"reply_text" json:"reply_text"`
	Status    string     `db:"status" json:"status"`
	ReplyIGID string     `db:"reply_ig_id" json:"reply_ig_id"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

const (
	ReplyKindQueued   = "queued"
	ReplyKindImported = "imported"
)

const (
	ReplyStatusPending        = "pending"
	ReplyStatusWaitingForPost = "waiting_for_post"
	ReplyStatusSent           = "sent"
	ReplyStatusImported       = "imported"
	ReplyStatusFailed         = "failed"
)
