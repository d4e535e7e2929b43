// Package events defines the domain events written to the transactional outbox.
package events

import (
	"context"
	"time"

	"retailcore/internal/core/id"
)

// Event types.
const (
	TypeStockChanged         = "stock.changed"
	TypeStockLow             = "stock.low"
	TypeDocumentTransitioned = "document.transitioned"
)

// Event is a domain event recorded in the same transaction as the change it describes.
type Event struct {
	TenantID      id.ID
	AggregateType string
	AggregateID   id.ID
	Type          string
	Payload       any
}

// Publisher records events. Implementations must join the transaction carried by ctx.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

// StockChangedPayload is the payload of TypeStockChanged.
type StockChangedPayload struct {
	StoreID         id.ID            `json:"storeId"`
	ReferenceType   string           `json:"referenceType"`
	ReferenceID     id.ID            `json:"referenceId"`
	ReferenceNumber string           `json:"referenceNumber"`
	Deltas          map[string]int64 `json:"deltas"`
}

// StockLowPayload is the payload of TypeStockLow.
type StockLowPayload struct {
	StoreID   id.ID `json:"storeId"`
	ProductID id.ID `json:"productId"`
	Quantity  int64 `json:"quantity"`
	MinStock  int64 `json:"minStock"`
}

// DocumentTransitionedPayload is the payload of TypeDocumentTransitioned.
type DocumentTransitionedPayload struct {
	Entity  string    `json:"entity"`
	Number  string    `json:"number"`
	Action  string    `json:"action"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	ActorID id.ID     `json:"actorId"`
	At      time.Time `json:"at"`
}
