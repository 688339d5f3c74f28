package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/creatortask/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error)
	FindDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	Claim(ctx context.Context, id uuid.UUID, token string, now time.Time) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, token string, status models.PostStatus, errorMessage *string) error
	Reschedule(ctx context.Context, id, userID uuid.UUID, scheduledTime time.Time) error
	ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time, reason string) (int64, error)
	Remove(ctx context.Context, id, userID uuid.UUID) error
}

const postColumns = `id, user_id, content, platforms, media_files, scheduled_time, status, error_message, claim_token, claimed_at, created_at, updated_at`

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPost reads a posts row. A NULL scheduled_time (drafts written by the
// composer) becomes the zero time.
func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post          models.Post
		scheduledTime sql.NullTime
	)
	err := row.Scan(&post.ID, &post.UserID, &post.Content, &post.Platforms, &post.MediaFiles,
		&scheduledTime, &post.Status, &post.ErrorMessage, &post.ClaimToken, &post.ClaimedAt,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if scheduledTime.Valid {
		post.ScheduledTime = scheduledTime.Time
	}
	return &post, nil
}

// nullTime stores the zero time as NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (uuid.UUID, error) {
	query := `
		INSERT INTO posts (user_id, content, platforms, media_files, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, post.UserID, post.Content, post.Platforms, post.MediaFiles,
		nullTime(post.ScheduledTime), post.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return uuid.Nil, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY scheduled_time DESC NULLS FIRST, created_at DESC`
	return r.list(ctx, query, userID)
}

// FindDue returns every scheduled post whose time has come. Order is not guaranteed
// to mean anything to callers.
func (r *postRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_time <= $2`
	return r.list(ctx, query, models.PostStatusScheduled, now)
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

// Claim moves a due post from scheduled to publishing under token. It reports false
// when another caller got there first or the post is no longer eligible.
func (r *postRepository) Claim(ctx context.Context, id uuid.UUID, token string, now time.Time) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			claim_token = $2,
			claimed_at = $3,
			updated_at = $3
		WHERE id = $4 AND status = $5 AND scheduled_time <= $3
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublishing, token, now, id, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

// SetStatus writes the terminal status of a claimed post and releases the claim.
func (r *postRepository) SetStatus(ctx context.Context, id uuid.UUID, token string, status models.PostStatus, errorMessage *string) error {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = $2,
			claim_token = NULL,
			updated_at = $3
		WHERE id = $4 AND status = $5 AND claim_token = $6
	`
	result, err := r.db.ExecContext(ctx, query, status, errorMessage, time.Now().UTC(), id, models.PostStatusPublishing, token)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrClaimLost
	}

	return nil
}

// Reschedule puts a failed post back in the queue for a manual retry.
func (r *postRepository) Reschedule(ctx context.Context, id, userID uuid.UUID, scheduledTime time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = NULL,
			scheduled_time = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, scheduledTime, time.Now().UTC(), id, userID, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	return nil
}

// ReleaseStaleClaims fails posts left in publishing since before claimedBefore.
// They are not put back to scheduled: the platform call may already have gone out.
func (r *postRepository) ReleaseStaleClaims(ctx context.Context, claimedBefore time.Time, reason string) (int64, error) {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = $2,
			claim_token = NULL,
			updated_at = $3
		WHERE status = $4 AND claimed_at < $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, reason, time.Now().UTC(), models.PostStatusPublishing, claimedBefore)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return affected, nil
}

func (r *postRepository) Remove(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2 AND status <> $3`
	result, err := r.db.ExecContext(ctx, query, id, userID, models.PostStatusPublishing)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	return nil
}
