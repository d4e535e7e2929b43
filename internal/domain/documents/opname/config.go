package opname

import (
	"retailcore/internal/core/entity"
	"retailcore/internal/core/numerator"
	"retailcore/internal/domain/workflow"
)

const (
	// EntityName is the reference type written on movements and audit records.
	EntityName = "stock_opname"

	// NumeratorKind selects the OPN-YYYYMM-NNNNN sequence.
	NumeratorKind = numerator.KindStockOpname
)

// ReasonThreshold is the absolute variance percentage above which an item needs a reason.
const ReasonThreshold = 5

var Definition = workflow.Definition{
	Entity:       EntityName,
	Terminal:     entity.StatusFinalized,
	TerminalVerb: "finalize",
}
