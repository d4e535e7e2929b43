// Package jobs turns outbox events into asynq tasks and processes them.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/events"
	"retailcore/pkg/logger"
)

const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskStockLow             = "stock:low"
	TaskDocumentTransitioned = "document:transitioned"
)

// StockLowPayload is the body of a TaskStockLow task.
type StockLowPayload struct {
	TenantID id.ID `json:"tenantId"`
	events.StockLowPayload
}

// DocumentTransitionedPayload is the body of a TaskDocumentTransitioned task.
type DocumentTransitionedPayload struct {
	TenantID   id.ID `json:"tenantId"`
	DocumentID id.ID `json:"documentId"`
	events.DocumentTransitionedPayload
}

// NewStockLowTask constructs a TaskStockLow task.
func NewStockLowTask(p StockLowPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", TaskStockLow, err)
	}
	return asynq.NewTask(TaskStockLow, data), nil
}

// NewDocumentTransitionedTask constructs a TaskDocumentTransitioned task.
func NewDocumentTransitionedTask(p DocumentTransitionedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", TaskDocumentTransitioned, err)
	}
	return asynq.NewTask(TaskDocumentTransitioned, data), nil
}

// Notifier receives processed task payloads. The default implementation logs.
type Notifier interface {
	StockLow(ctx context.Context, p StockLowPayload) error
	DocumentTransitioned(ctx context.Context, p DocumentTransitionedPayload) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

// StockLow implements Notifier.
func (LogNotifier) StockLow(ctx context.Context, p StockLowPayload) error {
	logger.Warn(ctx, "stock below minimum",
		"tenant_id", p.TenantID,
		"store_id", p.StoreID,
		"product_id", p.ProductID,
		"quantity", p.Quantity,
		"min_stock", p.MinStock,
	)
	return nil
}

// DocumentTransitioned implements Notifier.
func (LogNotifier) DocumentTransitioned(ctx context.Context, p DocumentTransitionedPayload) error {
	logger.Info(ctx, "document transitioned",
		"tenant_id", p.TenantID,
		"entity", p.Entity,
		"number", p.Number,
		"action", p.Action,
		"from", p.From,
		"to", p.To,
		"actor_id", p.ActorID,
	)
	return nil
}

// Handlers adapts a Notifier to asynq handler functions.
type Handlers struct {
	notifier Notifier
}

// NewHandlers creates task handlers. A nil notifier logs.
func NewHandlers(n Notifier) *Handlers {
	if n == nil {
		n = LogNotifier{}
	}
	return &Handlers{notifier: n}
}

// HandleStockLow processes TaskStockLow tasks.
func (h *Handlers) HandleStockLow(ctx context.Context, t *asynq.Task) error {
	var p StockLowPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s: %v: %w", TaskStockLow, err, asynq.SkipRetry)
	}
	return h.notifier.StockLow(ctx, p)
}

// HandleDocumentTransitioned processes TaskDocumentTransitioned tasks.
func (h *Handlers) HandleDocumentTransitioned(ctx context.Context, t *asynq.Task) error {
	var p DocumentTransitionedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s: %v: %w", TaskDocumentTransitioned, err, asynq.SkipRetry)
	}
	return h.notifier.DocumentTransitioned(ctx, p)
}
