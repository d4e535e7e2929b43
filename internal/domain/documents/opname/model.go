// Package opname provides the StockOpname document (physical stock count).
// Each item compares a snapshot of the system quantity with the counted
// quantity; finalizing posts the variances as OPNAME movements.
package opname

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/core/validation"
	"retailcore/internal/domain"
)

// Variance is the outcome of comparing a counted quantity with the system quantity.
type Variance struct {
	Variance    int64
	Percentage  decimal.Decimal
	NeedsReason bool
}

// ComputeVariance returns physical-system, its percentage of system rounded to
// two places (zero when system is not positive) and whether the absolute
// percentage exceeds ReasonThreshold. The threshold is compared on the exact
// ratio, not the rounded percentage.
func ComputeVariance(system, physical int64) Variance {
	v := physical - system
	return Variance{
		Variance:    v,
		Percentage:  types.Percent(v, system),
		NeedsReason: exceedsThreshold(v, system),
	}
}

// exceedsThreshold reports |variance|*100 > ReasonThreshold*system.
func exceedsThreshold(variance, system int64) bool {
	if system <= 0 {
		return false
	}
	lhs := decimal.NewFromInt(variance).Abs().Mul(decimal.NewFromInt(100))
	return lhs.GreaterThan(decimal.NewFromInt(ReasonThreshold).Mul(decimal.NewFromInt(system)))
}

// Item is one counted product.
type Item struct {
	ID       id.ID `db:"id" json:"id"`
	OpnameID id.ID `db:"opname_id" json:"opnameId"`
	LineNo   int   `db:"line_no" json:"lineNo"`

	ProductID        id.ID `db:"product_id" json:"productId" validate:"nonnil_id"`
	SystemQuantity   int64 `db:"system_quantity" json:"systemQuantity"`
	PhysicalQuantity int64 `db:"physical_quantity" json:"physicalQuantity" validate:"gte=0"`

	Variance           int64           `db:"variance" json:"variance"`
	VariancePercentage decimal.Decimal `db:"variance_percentage" json:"variancePercentage"`
	VarianceReason     string          `db:"variance_reason" json:"varianceReason,omitempty" validate:"max=500"`
	UnitCost           decimal.Decimal `db:"unit_cost" json:"unitCost"`
}

// NeedsReason reports whether the item's variance requires a written reason.
func (it *Item) NeedsReason() bool {
	return ComputeVariance(it.SystemQuantity, it.PhysicalQuantity).NeedsReason
}

// VarianceValue is variance * unit cost.
func (it *Item) VarianceValue() decimal.Decimal {
	return it.UnitCost.Mul(decimal.NewFromInt(it.Variance))
}

// StockOpname is a stock count of one store.
type StockOpname struct {
	entity.ApprovableDocument

	OpnameNumber string    `db:"opname_number" json:"opnameNumber"`
	StoreID      id.ID     `db:"store_id" json:"storeId" validate:"nonnil_id"`
	OpnameDate   time.Time `db:"opname_date" json:"opnameDate" validate:"required,notfuture"`

	// TotalVarianceValue caches Σ variance * unit_cost over items.
	TotalVarianceValue decimal.Decimal `db:"total_variance_value" json:"totalVarianceValue"`

	Items []Item `db:"-" json:"items" validate:"min=1,dive"`
}

var _ domain.Document = (*StockOpname)(nil)

// Validate implements entity.Validatable.
func (o *StockOpname) Validate(_ context.Context) error {
	if err := validation.Struct(o); err != nil {
		return err
	}
	seen := make(map[id.ID]struct{}, len(o.Items))
	for i, it := range o.Items {
		if _, dup := seen[it.ProductID]; dup {
			return apperror.NewFieldValidation(fmt.Sprintf("items[%d].productId", i), "product is counted twice")
		}
		seen[it.ProductID] = struct{}{}
		if it.UnitCost.IsNegative() {
			return apperror.NewFieldValidation(fmt.Sprintf("items[%d].unitCost", i), "must be at least 0")
		}
	}
	return nil
}

// Recalculate refreshes every item's variance fields and the cached total.
func (o *StockOpname) Recalculate() {
	total := decimal.Zero
	for i := range o.Items {
		it := &o.Items[i]
		it.OpnameID = o.ID
		it.LineNo = i + 1
		if id.IsNil(it.ID) {
			it.ID = id.New()
		}
		v := ComputeVariance(it.SystemQuantity, it.PhysicalQuantity)
		it.Variance = v.Variance
		it.VariancePercentage = v.Percentage
		total = total.Add(it.VarianceValue())
	}
	o.TotalVarianceValue = types.RoundMoney(total)
}

// CheckReasons fails on the first item whose variance needs a reason and has none.
func (o *StockOpname) CheckReasons() error {
	for i, it := range o.Items {
		if it.NeedsReason() && strings.TrimSpace(it.VarianceReason) == "" {
			return apperror.NewFieldValidation(
				fmt.Sprintf("items[%d].varianceReason", i),
				fmt.Sprintf("variance of %s%% exceeds %d%%, a reason is required", it.VariancePercentage.StringFixed(2), ReasonThreshold),
			).WithDetail("product_id", it.ProductID.String())
		}
	}
	return nil
}

// Products returns the counted product ids.
func (o *StockOpname) Products() []id.ID {
	out := make([]id.ID, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, it.ProductID)
	}
	return out
}

// DocumentNumber implements domain.Document.
func (o *StockOpname) DocumentNumber() string { return o.OpnameNumber }

// SetDocumentNumber implements domain.Document.
func (o *StockOpname) SetDocumentNumber(n string) { o.OpnameNumber = n }

// DocumentDate implements domain.Document.
func (o *StockOpname) DocumentDate() time.Time { return o.OpnameDate }

// GetStoreID returns the counted store.
func (o *StockOpname) GetStoreID() id.ID { return o.StoreID }

// Clone returns a deep copy.
func (o *StockOpname) Clone() *StockOpname {
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}
