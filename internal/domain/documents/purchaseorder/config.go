package purchaseorder

import (
	"retailcore/internal/core/entity"
	"retailcore/internal/core/numerator"
	"retailcore/internal/domain/workflow"
)

const (
	EntityName    = "purchase_order"
	NumeratorKind = numerator.KindPurchaseOrder
)

var Definition = workflow.Definition{
	Entity:       EntityName,
	Terminal:     entity.StatusReceived,
	TerminalVerb: "receive",
}
