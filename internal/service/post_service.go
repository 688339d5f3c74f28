package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/repository"
	"github.com/maheshrc27/creatortask/internal/transfer"
)

var ErrInvalidPost = errors.New("invalid post")

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, pc *transfer.PostCreation) (*models.Post, time.Duration, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID uuid.UUID) (*models.Post, error)
	Attempts(ctx context.Context, postID, userID uuid.UUID) ([]*models.PostingHistory, error)
	Retry(ctx context.Context, postID, userID uuid.UUID, at time.Time) (time.Duration, error)
	Remove(ctx context.Context, postID, userID uuid.UUID) error
}

type postService struct {
	pr  repository.PostRepository
	ph  repository.PostingHistoryRepository
	now func() time.Time
}

func NewPostService(pr repository.PostRepository, ph repository.PostingHistoryRepository) PostService {
	return &postService{
		pr:  pr,
		ph:  ph,
		now: time.Now,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPost, fmt.Sprintf(format, args...))
}

// CreatePost stores a draft or scheduled post and returns how long until it is due.
func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, pc *transfer.PostCreation) (*models.Post, time.Duration, error) {
	if pc == nil {
		return nil, 0, invalid("post creation data is nil")
	}

	content := strings.TrimSpace(pc.Content)
	if content == "" && len(pc.MediaFiles) == 0 {
		return nil, 0, invalid("content cannot be empty")
	}

	media := make(models.MediaFiles, 0, len(pc.MediaFiles))
	for _, mf := range pc.MediaFiles {
		if mf.Path == "" {
			return nil, 0, invalid("media file path cannot be empty")
		}
		if mf.Type != "" && !filetype.IsMIMESupported(mf.Type) {
			return nil, 0, invalid("unsupported media type %s", mf.Type)
		}
		media = append(media, models.MediaFile{Path: mf.Path, Type: mf.Type, URL: mf.URL})
	}

	platforms := models.Platforms(pc.Platforms)
	status := models.PostStatusDraft
	if !pc.Draft {
		if pc.ScheduledTime.IsZero() {
			return nil, 0, invalid("scheduled time is required")
		}
		if len(platforms.SelectedAccountIDs()) == 0 {
			return nil, 0, invalid("no social accounts selected")
		}
		status = models.PostStatusScheduled
	}

	post := &models.Post{
		UserID:        userID,
		Content:       pc.Content,
		Platforms:     platforms,
		MediaFiles:    media,
		ScheduledTime: pc.ScheduledTime.UTC(),
		Status:        status,
	}

	id, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, 0, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = id

	return post, s.delayUntil(post.ScheduledTime), nil
}

func (s *postService) List(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	return s.pr.GetByUserID(ctx, userID)
}

// PostInfo returns the post if it belongs to userID.
func (s *postService) PostInfo(ctx context.Context, postID, userID uuid.UUID) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return post, nil
}

func (s *postService) Attempts(ctx context.Context, postID, userID uuid.UUID) ([]*models.PostingHistory, error) {
	if _, err := s.PostInfo(ctx, postID, userID); err != nil {
		return nil, err
	}
	return s.ph.ListByPostID(ctx, postID)
}

// Retry puts a failed post back to scheduled. A zero at means now.
func (s *postService) Retry(ctx context.Context, postID, userID uuid.UUID, at time.Time) (time.Duration, error) {
	post, err := s.PostInfo(ctx, postID, userID)
	if err != nil {
		return 0, err
	}
	if post.Status != models.PostStatusFailed {
		return 0, repository.ErrStatusConflict
	}

	if at.IsZero() {
		at = s.now()
	}
	if err := s.pr.Reschedule(ctx, postID, userID, at.UTC()); err != nil {
		return 0, err
	}

	slog.Info("post rescheduled", "post_id", postID, "scheduled_time", at)
	return s.delayUntil(at), nil
}

func (s *postService) Remove(ctx context.Context, postID, userID uuid.UUID) error {
	if _, err := s.PostInfo(ctx, postID, userID); err != nil {
		return err
	}
	return s.pr.Remove(ctx, postID, userID)
}

func (s *postService) delayUntil(t time.Time) time.Duration {
	delay := t.Sub(s.now())
	if delay < 0 {
		return 0
	}
	return delay
}
