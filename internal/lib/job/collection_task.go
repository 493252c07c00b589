package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskCollectionChanged is the asynq task type for collection audits.
const TaskCollectionChanged = "microchip:collection_changed"

// CollectionChangedPayload describes one successful mutation.
type CollectionChangedPayload struct {
	Operation   string    `json:"operation"`
	AffectedIDs []int64   `json:"affected_ids"`
	Size        int       `json:"size"`
	ChangedAt   time.Time `json:"changed_at"`
}

// NewCollectionChangedTask builds the audit task. Imports use the "low"
// queue, everything else "default".
func NewCollectionChangedTask(p CollectionChangedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	queue := "default"
	if p.Operation == "import" {
		queue = "low"
	}

	return asynq.NewTask(
		TaskCollectionChanged,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(queue),
		asynq.Timeout(30*time.Second),
	), nil
}

// NotifyCollectionChanged enqueues an audit task for a mutation.
func (j *JobService) NotifyCollectionChanged(ctx context.Context, p CollectionChangedPayload) error {
	task, err := NewCollectionChangedTask(p)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Str("operation", p.Operation).
		Msg("collection change enqueued")
	return nil
}
