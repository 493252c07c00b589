package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// handleCollectionChangedTask writes the audit line for one mutation.
func (j *JobService) handleCollectionChangedTask(ctx context.Context, t *asynq.Task) error {
	var p CollectionChangedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		// a malformed payload will never succeed, do not retry it
		return fmt.Errorf("failed to unmarshal collection changed payload: %v: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", "audit").
		Str("operation", p.Operation).
		Ints64("affected_ids", p.AffectedIDs).
		Int("collection_size", p.Size).
		Time("changed_at", p.ChangedAt).
		Msg("microchip collection changed")

	return nil
}
