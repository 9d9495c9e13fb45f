package models

import "time"

type Settings struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	Tone              string    `db:"tone" json:"tone"`
	StyleNotes        string    `db:"style_notes" json:"style_notes"`
	HashtagMin        int       `db:"hashtag_min" json:"hashtag_min"`
	HashtagMax        int       `db:"hashtag_max" json:"hashtag_max"`
	CommentWindowDays int       `db:"comment_window_days" json:"comment_window_days"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const DefaultCommentWindowDays = 30
