package job

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/creatortask/internal/service"
)

type CycleRunner interface {
	RunCycle(ctx context.Context, now time.Time) (*service.CycleResult, error)
}

// CycleJob runs dispatch cycles in-process on a cron schedule. A tick that
// fires while the previous cycle is still running is dropped.
type CycleJob struct {
	r       CycleRunner
	timeout time.Duration
	running atomic.Bool
	now     func() time.Time
}

func NewCycleJob(r CycleRunner, timeout time.Duration) *CycleJob {
	return &CycleJob{
		r:       r,
		timeout: timeout,
		now:     time.Now,
	}
}

func (j *CycleJob) RunCycle() {
	if !j.running.CompareAndSwap(false, true) {
		slog.Info("previous dispatch cycle still running, skipping tick")
		return
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.r.RunCycle(ctx, j.now().UTC()); err != nil {
		slog.Error("dispatch cycle failed", "error", err)
	}
}
