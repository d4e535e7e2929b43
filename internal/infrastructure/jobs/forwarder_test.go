package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/events"
	"retailcore/internal/infrastructure/storage/postgres"
)

type mockEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (m *mockEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type recordingNotifier struct {
	low         []StockLowPayload
	transitions []DocumentTransitionedPayload
}

func (r *recordingNotifier) StockLow(_ context.Context, p StockLowPayload) error {
	r.low = append(r.low, p)
	return nil
}

func (r *recordingNotifier) DocumentTransitioned(_ context.Context, p DocumentTransitionedPayload) error {
	r.transitions = append(r.transitions, p)
	return nil
}

func outboxMessage(t *testing.T, eventType string, payload any) *postgres.OutboxMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &postgres.OutboxMessage{
		ID:          id.New(),
		TenantID:    id.New(),
		AggregateID: id.New(),
		EventType:   eventType,
		Payload:     raw,
	}
}

func TestForwarder_StockLowRoundTrip(t *testing.T) {
	enq := &mockEnqueuer{}
	f := NewOutboxForwarder(enq)
	msg := outboxMessage(t, events.TypeStockLow, events.StockLowPayload{
		StoreID: id.New(), ProductID: id.New(), Quantity: 2, MinStock: 5,
	})

	require.NoError(t, f.Handle(context.Background(), msg))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskStockLow, enq.tasks[0].Type())

	n := &recordingNotifier{}
	require.NoError(t, NewHandlers(n).HandleStockLow(context.Background(), enq.tasks[0]))
	require.Len(t, n.low, 1)
	assert.Equal(t, msg.TenantID, n.low[0].TenantID)
	assert.Equal(t, int64(2), n.low[0].Quantity)
	assert.Equal(t, int64(5), n.low[0].MinStock)
}

func TestForwarder_DocumentTransitioned(t *testing.T) {
	enq := &mockEnqueuer{}
	msg := outboxMessage(t, events.TypeDocumentTransitioned, events.DocumentTransitionedPayload{
		Entity: "stock_adjustment", Number: "ADJ-202601-00001", Action: "apply",
		From: "approved", To: "applied", ActorID: id.New(), At: time.Now().UTC(),
	})

	require.NoError(t, NewOutboxForwarder(enq).Handle(context.Background(), msg))
	require.Len(t, enq.tasks, 1)

	n := &recordingNotifier{}
	require.NoError(t, NewHandlers(n).HandleDocumentTransitioned(context.Background(), enq.tasks[0]))
	require.Len(t, n.transitions, 1)
	assert.Equal(t, msg.AggregateID, n.transitions[0].DocumentID)
	assert.Equal(t, "applied", n.transitions[0].To)
}

func TestForwarder_IgnoresEventsWithoutTask(t *testing.T) {
	enq := &mockEnqueuer{}
	msg := outboxMessage(t, events.TypeStockChanged, events.StockChangedPayload{})
	require.NoError(t, NewOutboxForwarder(enq).Handle(context.Background(), msg))
	assert.Empty(t, enq.tasks)
}

func TestForwarder_DuplicateTaskIsDelivered(t *testing.T) {
	enq := &mockEnqueuer{err: asynq.ErrTaskIDConflict}
	msg := outboxMessage(t, events.TypeStockLow, events.StockLowPayload{})
	assert.NoError(t, NewOutboxForwarder(enq).Handle(context.Background(), msg))
}

func TestForwarder_EnqueueErrorPropagates(t *testing.T) {
	enq := &mockEnqueuer{err: errors.New("redis down")}
	msg := outboxMessage(t, events.TypeStockLow, events.StockLowPayload{})
	assert.Error(t, NewOutboxForwarder(enq).Handle(context.Background(), msg))
}

func TestHandlers_BadPayloadSkipsRetry(t *testing.T) {
	err := NewHandlers(nil).HandleStockLow(context.Background(), asynq.NewTask(TaskStockLow, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
