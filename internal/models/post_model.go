package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

type PostStatus string

const (
	PostStatusDraft           PostStatus = "draft"
	PostStatusScheduled       PostStatus = "scheduled"
	PostStatusPublishing      PostStatus = "publishing"
	PostStatusPublished       PostStatus = "published"
	PostStatusFailed          PostStatus = "failed"
	PostStatusPendingApproval PostStatus = "pending_approval"
	PostStatusApproved        PostStatus = "approved"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublishing, PostStatusPublished,
		PostStatusFailed, PostStatusPendingApproval, PostStatusApproved:
		return true
	}
	return false
}

// Terminal reports whether the dispatcher is done with a post in this status.
func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

type Post struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Content       string     `db:"content" json:"content"`
	Platforms     Platforms  `db:"platforms" json:"platforms"`
	MediaFiles    MediaFiles `db:"media_files" json:"media_files"`
	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduled_time"`
	Status        PostStatus `db:"status" json:"status"`
	ErrorMessage  *string    `db:"error_message" json:"error_message,omitempty"`
	ClaimToken    *string    `db:"claim_token" json:"-"`
	ClaimedAt     *time.Time `db:"claimed_at" json:"-"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// IsDue reports whether the post is a dispatch candidate at now. A post
// without a scheduled time never is.
func (p *Post) IsDue(now time.Time) bool {
	return p.Status == PostStatusScheduled && !p.ScheduledTime.IsZero() && !p.ScheduledTime.After(now)
}

// Platforms maps an account id to whether the post targets it. Stored as jsonb.
type Platforms map[string]bool

// SelectedAccountIDs returns the ids marked true, sorted.
func (p Platforms) SelectedAccountIDs() []string {
	ids := make([]string, 0, len(p))
	for id, selected := range p {
		if selected {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (p Platforms) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *Platforms) Scan(src any) error {
	return scanJSON(src, p)
}

type MediaFile struct {
	Path string `json:"path"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// MediaFiles keeps attachment order. Stored as jsonb.
type MediaFiles []MediaFile

func (m MediaFiles) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *MediaFiles) Scan(src any) error {
	return scanJSON(src, m)
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return errors.New("unsupported jsonb source type")
	}
}
