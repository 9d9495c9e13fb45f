package transfer

type UploadFile struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Base64 string `json:"base64"`
}

type UploadRequest struct {
	UserID        int64        `json:"userId"`
	Files         []UploadFile `json:"files"`
	RawText       string       `json:"rawText,omitempty"`
	Collaborators []string     `json:"collaborators,omitempty"`
	SessionID     string       `json:"sessionId,omitempty"`
	ImageIndex    *int         `json:"imageIndex,omitempty"`
	TotalImages   int          `json:"totalImages,omitempty"`
}

type UploadResponse struct {
	Success     bool   `json:"success"`
	PostID      int64  `json:"postId,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
	ImageIndex  *int   `json:"imageIndex,omitempty"`
	TotalImages int    `json:"totalImages,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

type PublishRequest struct {
	PostID int64 `json:"post_id"`
}

type ImportRequest struct {
	Mode string `json:"mode"` // full, sync_recent, force_resync
}

type SettingsUpdate struct {
	Tone              string `json:"tone"`
	StyleNotes        string `json:"style_notes"`
	HashtagMin        int    `json:"hashtag_min"`
	HashtagMax        int    `json:"hashtag_max"`
	CommentWindowDays int    `json:"comment_window_days"`
}
