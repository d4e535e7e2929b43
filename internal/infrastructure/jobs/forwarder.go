package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"retailcore/internal/domain/events"
	"retailcore/internal/infrastructure/storage/postgres"
	"retailcore/pkg/logger"
)

// Enqueuer is the subset of *asynq.Client used by the forwarder.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// OutboxForwarder delivers outbox messages as asynq tasks. The outbox message id
// is used as the task id, so a message relayed twice enqueues one task.
type OutboxForwarder struct {
	enqueuer Enqueuer
}

var _ postgres.OutboxHandler = (*OutboxForwarder)(nil)

// NewOutboxForwarder creates a forwarder over an asynq client.
func NewOutboxForwarder(enqueuer Enqueuer) *OutboxForwarder {
	return &OutboxForwarder{enqueuer: enqueuer}
}

// Handle implements postgres.OutboxHandler.
func (f *OutboxForwarder) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	task, queue, err := taskFor(msg)
	if err != nil {
		return err
	}
	if task == nil {
		logger.Debug(ctx, "outbox event has no task", "event_type", msg.EventType, "message_id", msg.ID)
		return nil
	}

	_, err = f.enqueuer.EnqueueContext(ctx, task, asynq.Queue(queue), asynq.TaskID(msg.ID.String()))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}

func taskFor(msg *postgres.OutboxMessage) (*asynq.Task, string, error) {
	switch msg.EventType {
	case events.TypeStockLow:
		p := StockLowPayload{TenantID: msg.TenantID}
		if err := json.Unmarshal(msg.Payload, &p.StockLowPayload); err != nil {
			return nil, "", fmt.Errorf("decode %s payload: %w", msg.EventType, err)
		}
		task, err := NewStockLowTask(p)
		return task, QueueCritical, err

	case events.TypeDocumentTransitioned:
		p := DocumentTransitionedPayload{TenantID: msg.TenantID, DocumentID: msg.AggregateID}
		if err := json.Unmarshal(msg.Payload, &p.DocumentTransitionedPayload); err != nil {
			return nil, "", fmt.Errorf("decode %s payload: %w", msg.EventType, err)
		}
		task, err := NewDocumentTransitionedTask(p)
		return task, QueueDefault, err
	}
	return nil, "", nil
}
