package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func (q *Queue) HandleDispatchPostTask(ctx context.Context, task *asynq.Task) error {
	var payload DispatchPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode dispatch payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PostID == uuid.Nil {
		return fmt.Errorf("dispatch payload without post id: %w", asynq.SkipRetry)
	}

	processed, err := q.d.DispatchPost(ctx, payload.PostID, q.now().UTC())
	if err != nil {
		return err
	}

	slog.Info("dispatch task handled", "post_id", payload.PostID, "processed", processed)
	return nil
}

func (q *Queue) HandleDispatchCycleTask(ctx context.Context, _ *asynq.Task) error {
	result, err := q.d.RunCycle(ctx, q.now().UTC())
	if err != nil {
		return err
	}

	slog.Info("scheduled dispatch cycle handled", "found", result.Found, "processed", result.Processed)
	return nil
}

func (q *Queue) ServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDispatchPost, q.HandleDispatchPostTask)
	mux.HandleFunc(TaskTypeDispatchCycle, q.HandleDispatchCycleTask)
	return mux
}
