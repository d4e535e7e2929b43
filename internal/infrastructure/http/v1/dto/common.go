// Package dto provides the request bodies and query parameters of the API.
package dto

import (
	"strings"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
)

// ListQuery holds the query parameters accepted by every document list endpoint.
type ListQuery struct {
	Search         string     `form:"search"`
	StoreID        string     `form:"storeId"`
	Status         string     `form:"status"` // comma separated
	CreatedBy      string     `form:"createdBy"`
	DateFrom       *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo         *time.Time `form:"dateTo" time_format:"2006-01-02"`
	IncludeDeleted bool       `form:"includeDeleted"`
	OrderBy        string     `form:"orderBy"`
	Limit          int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset         int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a domain filter.
func (q ListQuery) ToFilter() (domain.ListFilter, error) {
	f := domain.DefaultListFilter()
	var err error
	if f.StoreID, err = optionalID("storeId", q.StoreID); err != nil {
		return f, err
	}
	if f.CreatedBy, err = optionalID("createdBy", q.CreatedBy); err != nil {
		return f, err
	}
	f.Search = q.Search
	f.DateFrom = q.DateFrom
	f.DateTo = q.DateTo
	f.IncludeDeleted = q.IncludeDeleted
	if q.OrderBy != "" {
		f.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	for _, s := range strings.Split(q.Status, ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.Statuses = append(f.Statuses, entity.Status(s))
		}
	}
	f.Normalize()
	return f, nil
}

// HistoryQuery holds the query parameters of the audit history endpoint.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

func optionalID(field, raw string) (*id.ID, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := id.Parse(raw)
	if err != nil {
		return nil, apperror.NewFieldValidation(field, "must be a UUID")
	}
	return &v, nil
}

// RejectRequest is the body of POST /{kind}/:id/reject.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// ReceiveRequest is the optional body of POST /purchase-orders/:id/receive.
type ReceiveRequest struct {
	StoreID *id.ID `json:"storeId"`
}
