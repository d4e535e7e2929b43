package dto

import (
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/domain/registers/stock"
)

// StockQuery holds the query parameters of GET /stocks.
type StockQuery struct {
	StoreID     string   `form:"storeId"`
	ProductIDs  []string `form:"productId"`
	ExcludeZero bool     `form:"excludeZero"`
	OnlyLow     bool     `form:"onlyLow"`
	Limit       int      `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset      int      `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a balance filter.
func (q StockQuery) ToFilter() (stock.BalanceFilter, error) {
	f := stock.BalanceFilter{
		ExcludeZero: q.ExcludeZero,
		OnlyLow:     q.OnlyLow,
		Limit:       q.Limit,
		Offset:      q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 100
	}
	var err error
	if f.StoreID, err = optionalID("storeId", q.StoreID); err != nil {
		return f, err
	}
	for _, raw := range q.ProductIDs {
		pid, err := optionalID("productId", raw)
		if err != nil {
			return f, err
		}
		if pid != nil {
			f.ProductIDs = append(f.ProductIDs, *pid)
		}
	}
	return f, nil
}

// MovementQuery holds the query parameters of GET /stocks/movements.
type MovementQuery struct {
	StoreID     string     `form:"storeId"`
	ProductID   string     `form:"productId"`
	Type        string     `form:"type"`
	ReferenceID string     `form:"referenceId"`
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Limit       int        `form:"limit" binding:"omitempty,min=1,max=1000"`
	Offset      int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a movement filter.
func (q MovementQuery) ToFilter() (stock.MovementFilter, error) {
	f := stock.MovementFilter{
		FromDate: q.From,
		ToDate:   q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 100
	}
	var err error
	if f.StoreID, err = optionalID("storeId", q.StoreID); err != nil {
		return f, err
	}
	if f.ProductID, err = optionalID("productId", q.ProductID); err != nil {
		return f, err
	}
	if f.ReferenceID, err = optionalID("referenceId", q.ReferenceID); err != nil {
		return f, err
	}
	if q.Type != "" {
		t := entity.MovementType(q.Type)
		if !t.Valid() {
			return f, apperror.NewFieldValidation("type", "unknown movement type")
		}
		f.Type = &t
	}
	return f, nil
}
