package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/creatortask/internal/service"
)

// Dispatcher is the dispatch engine as seen by the task handlers.
type Dispatcher interface {
	RunCycle(ctx context.Context, now time.Time) (*service.CycleResult, error)
	DispatchPost(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

type Queue struct {
	d   Dispatcher
	now func() time.Time
}

func NewQueue(d Dispatcher) *Queue {
	return &Queue{
		d:   d,
		now: time.Now,
	}
}

const (
	TaskTypeDispatchPost  = "post:dispatch"
	TaskTypeDispatchCycle = "dispatch:cycle"
)

type DispatchPostPayload struct {
	PostID uuid.UUID `json:"post_id"`
}
