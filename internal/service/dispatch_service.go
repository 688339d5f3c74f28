package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	config "github.com/maheshrc27/creatortask/configs"
	"github.com/maheshrc27/creatortask/internal/events"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/publisher"
	"github.com/maheshrc27/creatortask/internal/repository"
)

const StaleClaimReason = "publishing interrupted"

// PostStore is the part of the post repository the dispatcher needs.
type PostStore interface {
	FindDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Claim(ctx context.Context, id uuid.UUID, token string, now time.Time) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, token string, status models.PostStatus, errorMessage *string) error
	ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time, reason string) (int64, error)
}

type AccountDirectory interface {
	ResolveAccounts(ctx context.Context, ids []string) ([]*models.SocialAccount, error)
}

type HistoryRecorder interface {
	Create(ctx context.Context, ph *models.PostingHistory) (int64, error)
}

type CycleResult struct {
	Found     int `json:"found"`
	Processed int `json:"processed"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomePublished
	outcomeFailed
	outcomeUnreconciled
)

// attempt is the result of publishing a post to one target account.
type attempt struct {
	accountID string
	platform  models.Platform
	err       error
}

type DispatchService struct {
	posts    PostStore
	accounts AccountDirectory
	history  HistoryRecorder
	registry *publisher.Registry
	events   events.Publisher
	cfg      config.Dispatch
	newToken func() (string, error)
}

func NewDispatchService(
	posts PostStore,
	accounts AccountDirectory,
	history HistoryRecorder,
	registry *publisher.Registry,
	ev events.Publisher,
	cfg config.Dispatch) *DispatchService {
	if ev == nil {
		ev = events.NoopPublisher{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 30 * time.Second
	}
	return &DispatchService{
		posts:    posts,
		accounts: accounts,
		history:  history,
		registry: registry,
		events:   ev,
		cfg:      cfg,
		newToken: func() (string, error) { return gonanoid.New() },
	}
}

// RunCycle publishes every post due at now. Each post is claimed before any
// publish call, so overlapping cycles never publish the same post twice.
// Status-write failures are joined into the returned error; the result is
// still returned for the posts that were handled.
func (s *DispatchService) RunCycle(ctx context.Context, now time.Time) (*CycleResult, error) {
	due, err := s.posts.FindDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("find due posts: %w", err)
	}

	result := &CycleResult{Found: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)

	for _, post := range due {
		if ctx.Err() != nil {
			mu.Lock()
			result.Skipped++
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			out, err := s.dispatch(ctx, post, now)

			mu.Lock()
			defer mu.Unlock()
			switch out {
			case outcomeSkipped:
				result.Skipped++
			case outcomePublished:
				result.Processed++
				result.Published++
			case outcomeFailed:
				result.Processed++
				result.Failed++
			}
			if err != nil {
				errs = append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("dispatch cycle finished",
		"found", result.Found,
		"processed", result.Processed,
		"published", result.Published,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)

	return result, errors.Join(errs...)
}

// DispatchPost processes a single post if it is due at now. It reports whether
// this call claimed and reconciled the post.
func (s *DispatchService) DispatchPost(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.Info("post no longer exists", "post_id", id)
			return false, nil
		}
		return false, fmt.Errorf("get post %s: %w", id, err)
	}

	if !post.IsDue(now) {
		slog.Info("post not due for dispatch", "post_id", id, "status", post.Status, "scheduled_time", post.ScheduledTime)
		return false, nil
	}

	out, err := s.dispatch(ctx, post, now)
	return out == outcomePublished || out == outcomeFailed, err
}

// ReleaseStaleClaims fails posts that have been held in publishing for longer
// than the configured window. They are never re-published automatically.
func (s *DispatchService) ReleaseStaleClaims(ctx context.Context, now time.Time) (int64, error) {
	if s.cfg.StaleClaimAfter <= 0 {
		return 0, nil
	}
	n, err := s.posts.ReleaseStaleClaims(ctx, now.Add(-s.cfg.StaleClaimAfter), StaleClaimReason)
	if err != nil {
		return 0, fmt.Errorf("release stale claims: %w", err)
	}
	if n > 0 {
		slog.Warn("released stale publishing claims", "count", n)
	}
	return n, nil
}

func (s *DispatchService) dispatch(ctx context.Context, post *models.Post, now time.Time) (outcome, error) {
	if ctx.Err() != nil {
		return outcomeSkipped, nil
	}

	token, err := s.newToken()
	if err != nil {
		return outcomeUnreconciled, fmt.Errorf("claim token for post %s: %w", post.ID, err)
	}

	claimed, err := s.posts.Claim(ctx, post.ID, token, now)
	if err != nil {
		return outcomeUnreconciled, fmt.Errorf("claim post %s: %w", post.ID, err)
	}
	if !claimed {
		slog.Info("post already claimed", "post_id", post.ID)
		return outcomeSkipped, nil
	}

	// The claim is held from here on. The trigger's cancellation must not
	// leave the post in publishing.
	work := context.WithoutCancel(ctx)

	attempts := s.publishAll(work, post)
	s.recordHistory(work, post.ID, attempts)

	status := models.PostStatusPublished
	var reason *string
	for _, a := range attempts {
		if a.err != nil {
			msg := a.err.Error()
			status = models.PostStatusFailed
			reason = &msg
			break
		}
	}

	writeCtx, cancel := context.WithTimeout(work, s.cfg.PublishTimeout)
	defer cancel()

	if err := s.posts.SetStatus(writeCtx, post.ID, token, status, reason); err != nil {
		slog.Error("failed to write post status", "post_id", post.ID, "status", status, "error", err)
		return outcomeUnreconciled, fmt.Errorf("set status of post %s to %s: %w", post.ID, status, err)
	}

	var event events.PostOutcome
	if status == models.PostStatusPublished {
		slog.Info("post published", "post_id", post.ID, "targets", len(attempts))
		event = events.NewPostPublished(post.ID, post.UserID)
	} else {
		slog.Info("post failed", "post_id", post.ID, "reason", *reason)
		event = events.NewPostFailed(post.ID, post.UserID, *reason)
	}
	if err := s.events.PublishPostOutcome(writeCtx, event); err != nil {
		slog.Warn("failed to emit post event", "post_id", post.ID, "type", event.Type, "error", err)
	}

	if status == models.PostStatusFailed {
		return outcomeFailed, nil
	}
	return outcomePublished, nil
}

// publishAll sends the post to every selected account concurrently. Attempts
// are returned in sorted target order.
func (s *DispatchService) publishAll(ctx context.Context, post *models.Post) []attempt {
	targets := post.Platforms.SelectedAccountIDs()
	attempts := make([]attempt, len(targets))
	if len(targets) == 0 {
		return attempts
	}

	resolved, err := s.accounts.ResolveAccounts(ctx, targets)
	if err != nil {
		slog.Error("failed to resolve accounts", "post_id", post.ID, "error", err)
		for i, id := range targets {
			attempts[i] = attempt{accountID: id, err: fmt.Errorf("resolve account %s: %w", id, err)}
		}
		return attempts
	}

	byID := make(map[string]*models.SocialAccount, len(resolved))
	for _, acc := range resolved {
		byID[acc.ID.String()] = acc
	}

	var g errgroup.Group
	for i, id := range targets {
		attempts[i].accountID = id

		acc, ok := byID[id]
		if !ok {
			attempts[i].err = publisher.AccountNotFound(id)
			continue
		}
		attempts[i].platform = acc.Platform

		pub, ok := s.registry.Lookup(acc.Platform)
		if !ok {
			attempts[i].err = publisher.UnsupportedPlatform(id, acc.Platform)
			continue
		}

		req := publisher.PublishRequest{
			Content:    post.Content,
			Account:    acc,
			MediaFiles: post.MediaFiles,
		}
		g.Go(func() error {
			attempts[i].err = s.publishOne(ctx, pub, req)
			return nil
		})
	}
	_ = g.Wait()

	return attempts
}

func (s *DispatchService) publishOne(ctx context.Context, pub publisher.Publisher, req publisher.PublishRequest) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("publisher panicked", "platform", pub.Platform(), "account_id", req.Account.ID, "panic", r)
			err = &publisher.PublishError{
				Platform:  pub.Platform(),
				AccountID: req.Account.ID.String(),
				Reason:    fmt.Sprintf("publishing to %s failed unexpectedly", pub.Platform()),
			}
		}
	}()

	if err := pub.Publish(ctx, req); err != nil {
		var pubErr *publisher.PublishError
		if errors.As(err, &pubErr) {
			return pubErr
		}
		return &publisher.PublishError{
			Platform:  pub.Platform(),
			AccountID: req.Account.ID.String(),
			Reason:    err.Error(),
			Err:       err,
		}
	}
	return nil
}

func (s *DispatchService) recordHistory(ctx context.Context, postID uuid.UUID, attempts []attempt) {
	if s.history == nil {
		return
	}
	for _, a := range attempts {
		ph := &models.PostingHistory{
			PostID:    postID,
			AccountID: a.accountID,
			Platform:  string(a.platform),
			Succeeded: a.err == nil,
		}
		if a.err != nil {
			ph.ErrorMessage = a.err.Error()
		}
		s.saveHistory(ctx, ph)
	}
}

// saveHistory bounds each write so a hung database cannot hold the claim.
func (s *DispatchService) saveHistory(ctx context.Context, ph *models.PostingHistory) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()

	if _, err := s.history.Create(ctx, ph); err != nil {
		slog.Warn("failed to save posting history", "post_id", ph.PostID, "account_id", ph.AccountID, "error", err)
	}
}
