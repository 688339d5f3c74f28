package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func NewDispatchPostTask(payload DispatchPostPayload) (*asynq.Task, error) {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// Publishing is not idempotent on the platforms' side, so a failed task is never retried.
	return asynq.NewTask(TaskTypeDispatchPost, taskPayload, asynq.MaxRetry(0)), nil
}

func NewDispatchCycleTask() *asynq.Task {
	return asynq.NewTask(TaskTypeDispatchCycle, nil, asynq.MaxRetry(0))
}

func EnqueuePost(asynqClient *asynq.Client, payload DispatchPostPayload, delay time.Duration) error {
	task, err := NewDispatchPostTask(payload)
	if err != nil {
		return err
	}

	info, err := asynqClient.Enqueue(task, asynq.ProcessIn(delay))
	if err != nil {
		return err
	}

	slog.Info("dispatch task scheduled", "post_id", payload.PostID, "task_id", info.ID, "delay", delay)
	return nil
}

// Scheduler enqueues delayed dispatch tasks for new and retried posts.
type Scheduler struct {
	client *asynq.Client
}

func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{client: client}
}

func (s *Scheduler) SchedulePost(postID uuid.UUID, delay time.Duration) error {
	return EnqueuePost(s.client, DispatchPostPayload{PostID: postID}, delay)
}

// RegisterCycle adds the periodic dispatch cycle to an asynq scheduler.
func RegisterCycle(scheduler *asynq.Scheduler, cronspec string) (string, error) {
	return scheduler.Register(cronspec, NewDispatchCycleTask())
}
