package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/creatortask/internal/models"
)

// Event types double as routing keys.
const (
	TypePostPublished = "post.published"
	TypePostFailed    = "post.failed"
)

// PostOutcome is emitted once per post, after its terminal status is stored.
type PostOutcome struct {
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Payload   PostOutcomePayload `json:"payload"`
}

type PostOutcomePayload struct {
	PostID       uuid.UUID         `json:"post_id"`
	UserID       uuid.UUID         `json:"user_id"`
	Status       models.PostStatus `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

func NewPostPublished(postID, userID uuid.UUID) PostOutcome {
	return newPostOutcome(TypePostPublished, PostOutcomePayload{
		PostID: postID,
		UserID: userID,
		Status: models.PostStatusPublished,
	})
}

func NewPostFailed(postID, userID uuid.UUID, reason string) PostOutcome {
	return newPostOutcome(TypePostFailed, PostOutcomePayload{
		PostID:       postID,
		UserID:       userID,
		Status:       models.PostStatusFailed,
		ErrorMessage: reason,
	})
}

func newPostOutcome(eventType string, payload PostOutcomePayload) PostOutcome {
	return PostOutcome{Type: eventType, Timestamp: time.Now().UTC(), Payload: payload}
}
