package unpacking

import (
	"retailcore/internal/core/entity"
	"retailcore/internal/core/numerator"
	"retailcore/internal/domain/workflow"
)

const (
	EntityName    = "unpacking_transaction"
	NumeratorKind = numerator.KindUnpacking
)

var Definition = workflow.Definition{
	Entity:       EntityName,
	Terminal:     entity.StatusProcessed,
	TerminalVerb: "process",
}
