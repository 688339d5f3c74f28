package models

import (
	"time"

	"github.com/google/uuid"
)

// PostingHistory records the outcome of one publish attempt for one target account.
type PostingHistory struct {
	ID           int64     `db:"id" json:"id"`
	PostID       uuid.UUID `db:"post_id" json:"post_id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Platform     string    `db:"platform" json:"platform"`
	Succeeded    bool      `db:"succeeded" json:"succeeded"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
