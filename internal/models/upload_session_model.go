package models

import "time"

type UploadedFile struct {
	StoragePath string `json:"storagePath"`
	PublicURL   string `json:"publicUrl"`
}

type UploadSession struct {
	SessionID     string         `db:"session_id" json:"session_id"`
	UserID        int64          `db:"user_id" json:"user_id"`
	UploadedFiles []UploadedFile `db:"uploaded_files" json:"uploaded_files"`
	RawText       string         `db:"raw_text" json:"raw_text"`
	Collaborators []string       `db:"collaborators" json:"collaborators"`
	TotalImages   int            `db:"total_images" json:"total_images"`
	IsCompleted   bool           `db:"is_completed" json:"is_completed"`
	ExpiresAt     time.Time      `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

const UploadSessionTTL = 10 * time.Minute
