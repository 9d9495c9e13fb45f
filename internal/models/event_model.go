package models

import "time"

// EventLog rows form an append-only operations log. Scope names the
// pipeline that produced the event (upload, publish, import, comments).
type EventLog struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Scope     string    `db:"scope" json:"scope"`
	Level     string    `db:"level" json:"level"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	EventScopeUpload   = "upload"
	EventScopePublish  = "publish"
	EventScopeImport   = "import"
	EventScopeComments = "comments"
)

const (
	EventLevelInfo  = "info"
	EventLevelError = "error"
)
