package job

import (
	"context"
	"log/slog"
	"time"
)

const staleClaimInterval = "@every 00h05m00s"

type StaleClaimReleaser interface {
	ReleaseStaleClaims(ctx context.Context, now time.Time) (int64, error)
}

// StaleClaimJob fails posts whose publishing claim was abandoned by a crashed worker.
type StaleClaimJob struct {
	r       StaleClaimReleaser
	timeout time.Duration
	now     func() time.Time
}

func NewStaleClaimJob(r StaleClaimReleaser) *StaleClaimJob {
	return &StaleClaimJob{
		r:       r,
		timeout: time.Minute,
		now:     time.Now,
	}
}

func (j *StaleClaimJob) ReleaseStaleClaims() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.r.ReleaseStaleClaims(ctx, j.now().UTC()); err != nil {
		slog.Error("stale claim release failed", "error", err)
	}
}
