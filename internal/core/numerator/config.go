// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Kind identifies a numbered document type.
type Kind string

const (
	KindStockAdjustment Kind = "stock_adjustment"
	KindStockOpname     Kind = "stock_opname"
	KindUnpacking       Kind = "unpacking_transaction"
	KindPurchaseOrder   Kind = "purchase_order"
)

// ResetPeriod controls when a counter starts again from 1.
type ResetPeriod string

const (
	ResetNever ResetPeriod = "never"
	ResetYear  ResetPeriod = "year"
	ResetMonth ResetPeriod = "month"
)

// Config holds numbering configuration for one kind.
type Config struct {
	// Prefix added to all numbers (e.g., "ADJ", "PO")
	Prefix string

	// PadWidth is the minimum counter width (default 5)
	PadWidth int

	// ResetPeriod scopes the counter to a calendar period.
	ResetPeriod ResetPeriod
}

// DefaultConfigs maps each kind to its number format: PREFIX-YYYYMM-NNNNN.
var DefaultConfigs = map[Kind]Config{
	KindStockAdjustment: {Prefix: "ADJ", PadWidth: 5, ResetPeriod: ResetMonth},
	KindStockOpname:     {Prefix: "OPN", PadWidth: 5, ResetPeriod: ResetMonth},
	KindUnpacking:       {Prefix: "UNP", PadWidth: 5, ResetPeriod: ResetMonth},
	KindPurchaseOrder:   {Prefix: "PO", PadWidth: 5, ResetPeriod: ResetMonth},
}

// ConfigFor returns the configuration for kind, deriving a prefix from the kind name when unknown.
func ConfigFor(kind Kind) Config {
	if cfg, ok := DefaultConfigs[kind]; ok {
		return cfg
	}
	return Config{Prefix: string(kind), PadWidth: 5, ResetPeriod: ResetMonth}
}
