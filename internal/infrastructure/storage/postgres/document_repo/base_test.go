package document_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/domain/documents/purchaseorder"
)

func TestParseOrderBy(t *testing.T) {
	repo := NewAdjustmentRepo(nil)

	tests := []struct {
		in   string
		want string
	}{
		{"", "created_at DESC"},
		{"-created_at", "created_at DESC"},
		{"number", "adjustment_number ASC"},
		{"-date", "adjustment_date DESC"},
		{"+status", "status ASC"},
		{"quantity", "quantity ASC"},
	}
	for _, tt := range tests {
		got, err := repo.parseOrderBy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseOrderBy_RejectsUnknownColumns(t *testing.T) {
	repo := NewOpnameRepo(nil)

	_, err := repo.parseOrderBy("-items")
	assert.True(t, apperror.IsValidation(err))

	_, err = repo.parseOrderBy("status; DROP TABLE stock_opnames")
	assert.True(t, apperror.IsValidation(err))
}

func TestHeaderColumnsExcludeItems(t *testing.T) {
	repo := NewPurchaseOrderRepo(nil)
	assert.Contains(t, repo.cols, "po_number")
	assert.Contains(t, repo.cols, "store_id")
	assert.NotContains(t, repo.cols, "items")

	lines, ok := repo.lines.(itemLines[*purchaseorder.PurchaseOrder, purchaseorder.Item])
	require.True(t, ok)
	assert.Equal(t, "purchase_order_id", lines.fk)
	assert.Contains(t, lines.cols, "line_total")
}
