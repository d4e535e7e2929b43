package adjustment

import (
	"retailcore/internal/core/entity"
	"retailcore/internal/core/numerator"
	"retailcore/internal/domain/workflow"
)

// EntityName is the reference type written on movements and audit records.
const EntityName = "stock_adjustment"

// NumeratorKind selects the ADJ-YYYYMM-NNNNN sequence.
const NumeratorKind = numerator.KindStockAdjustment

// Definition is the workflow of stock adjustments.
var Definition = workflow.Definition{
	Entity:       EntityName,
	Terminal:     entity.StatusApplied,
	TerminalVerb: "apply",
}
