package opname_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/numerator"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/opname"
	"retailcore/internal/domain/registers/stock"
	"retailcore/internal/testing/memstore"
)

func TestComputeVariance(t *testing.T) {
	tests := []struct {
		name        string
		system      int64
		physical    int64
		variance    int64
		pct         string
		needsReason bool
	}{
		{"shrinkage above threshold", 100, 94, -6, "-6.00", true},
		{"exactly five percent", 100, 95, -5, "-5.00", false},
		{"surplus", 100, 106, 6, "6.00", true},
		{"no change", 40, 40, 0, "0.00", false},
		{"rounded", 3, 2, -1, "-33.33", true},
		{"zero system", 0, 7, 7, "0.00", false},
		{"just over threshold rounds to five", 100001, 105002, 5001, "5.00", true},
		{"just over threshold shortage", 100001, 94999, -5002, "-5.00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := opname.ComputeVariance(tt.system, tt.physical)
			assert.Equal(t, tt.variance, v.Variance)
			assert.Equal(t, tt.pct, v.Percentage.StringFixed(2))
			assert.Equal(t, tt.needsReason, v.NeedsReason)
		})
	}
}

type fixture struct {
	store   *memstore.Store
	svc     *opname.Service
	tenant  id.ID
	shop    id.ID
	cashier security.Actor
	owner   security.Actor
}

func newFixture() fixture {
	st := memstore.New()
	tenant := id.New()
	return fixture{
		store: st,
		svc: opname.NewService(domain.Deps{
			TxManager:  st.Tx,
			Numerator:  &numerator.MockGenerator{},
			Authorizer: security.MustDefaultPolicy(),
			Stock:      stock.NewService(st.Stock, st.Tx, st.Outbox),
			Publisher:  st.Outbox,
			Audit:      st.Audit,
		}, memstore.NewDocTable[*opname.StockOpname](opname.EntityName, st.Locks)),
		tenant:  tenant,
		shop:    id.New(),
		cashier: security.NewActor(id.New(), tenant, security.RoleCashier),
		owner:   security.NewActor(id.New(), tenant, security.RoleOwner),
	}
}

func TestCreate_SnapshotsSystemQuantity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p1, p2 := id.New(), id.New()
	f.store.Stock.Seed(f.tenant, f.shop, p1, 100)

	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, opname.CreateInput{
		StoreID:    f.shop,
		OpnameDate: time.Now().UTC(),
		Items: []opname.ItemInput{
			{ProductID: p1, PhysicalQuantity: 94, UnitCost: decimal.RequireFromString("2.50")},
			{ProductID: p2, PhysicalQuantity: 3, UnitCost: decimal.RequireFromString("1.00")},
		},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^OPN-\d{6}-\d{5}$`, doc.OpnameNumber)

	require.Len(t, doc.Items, 2)
	assert.Equal(t, int64(100), doc.Items[0].SystemQuantity)
	assert.Equal(t, int64(-6), doc.Items[0].Variance)
	assert.Equal(t, "-6.00", doc.Items[0].VariancePercentage.StringFixed(2))
	assert.Equal(t, int64(0), doc.Items[1].SystemQuantity)
	assert.Equal(t, int64(3), doc.Items[1].Variance)
	// -6*2.50 + 3*1.00
	assert.Equal(t, "-12.00", doc.TotalVarianceValue.StringFixed(2))
}

func TestCreate_RejectsDuplicateProducts(t *testing.T) {
	f := newFixture()
	p := id.New()
	_, err := f.svc.Create(context.Background(), f.tenant, f.cashier, opname.CreateInput{
		StoreID:    f.shop,
		OpnameDate: time.Now().UTC(),
		Items:      []opname.ItemInput{{ProductID: p, PhysicalQuantity: 1}, {ProductID: p, PhysicalQuantity: 2}},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestSubmit_RequiresReasonForLargeVariance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := id.New()
	f.store.Stock.Seed(f.tenant, f.shop, p, 100)

	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, opname.CreateInput{
		StoreID:    f.shop,
		OpnameDate: time.Now().UTC(),
		Items:      []opname.ItemInput{{ProductID: p, PhysicalQuantity: 94}},
	})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.tenant, doc.ID, f.cashier)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	got, err := f.svc.Get(ctx, f.tenant, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, got.Status)

	_, err = f.svc.Update(ctx, f.tenant, doc.ID, f.cashier, opname.UpdateInput{
		Items: []opname.ItemInput{{ProductID: p, PhysicalQuantity: 94, VarianceReason: "broken packaging"}},
	})
	require.NoError(t, err)

	submitted, err := f.svc.Submit(ctx, f.tenant, doc.ID, f.cashier)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, submitted.Status)
}

func TestUpdate_KeepsSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p1, p2 := id.New(), id.New()
	f.store.Stock.Seed(f.tenant, f.shop, p1, 10)
	f.store.Stock.Seed(f.tenant, f.shop, p2, 20)

	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, opname.CreateInput{
		StoreID:    f.shop,
		OpnameDate: time.Now().UTC(),
		Items:      []opname.ItemInput{{ProductID: p1, PhysicalQuantity: 10}},
	})
	require.NoError(t, err)

	f.store.Stock.Seed(f.tenant, f.shop, p1, 5)

	updated, err := f.svc.Update(ctx, f.tenant, doc.ID, f.cashier, opname.UpdateInput{
		Items: []opname.ItemInput{
			{ProductID: p1, PhysicalQuantity: 10},
			{ProductID: p2, PhysicalQuantity: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, int64(10), updated.Items[0].SystemQuantity)
	assert.Equal(t, int64(20), updated.Items[1].SystemQuantity)
}

func TestFinalize_PostsVariancesAndStampsCountDate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p1, p2 := id.New(), id.New()
	f.store.Stock.Seed(f.tenant, f.shop, p1, 100)
	f.store.Stock.Seed(f.tenant, f.shop, p2, 8)

	countDate := time.Now().UTC().Truncate(24 * time.Hour)
	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, opname.CreateInput{
		StoreID:    f.shop,
		OpnameDate: countDate,
		Items: []opname.ItemInput{
			{ProductID: p1, PhysicalQuantity: 94, VarianceReason: "theft"},
			{ProductID: p2, PhysicalQuantity: 8},
		},
	})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.tenant, doc.ID, f.cashier)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.tenant, doc.ID, f.owner)
	require.NoError(t, err)

	final, err := f.svc.Finalize(ctx, f.tenant, doc.ID, f.cashier)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinalized, final.Status)

	assert.Equal(t, int64(94), f.store.Stock.Quantity(f.tenant, f.shop, p1))
	assert.Equal(t, int64(8), f.store.Stock.Quantity(f.tenant, f.shop, p2))

	moves := f.store.Stock.Movements(doc.ID)
	require.Len(t, moves, 1)
	assert.Equal(t, entity.MovementOpname, moves[0].Type)
	assert.Equal(t, int64(-6), moves[0].Delta())

	for _, p := range []id.ID{p1, p2} {
		row, err := f.store.Stock.Get(ctx, f.tenant, f.shop, p)
		require.NoError(t, err)
		require.NotNil(t, row.LastStockOpnameDate)
		assert.True(t, countDate.Equal(*row.LastStockOpnameDate))
	}

	_, err = f.svc.Finalize(ctx, f.tenant, doc.ID, f.cashier)
	assert.True(t, apperror.IsAlreadyApplied(err))
}

func TestFinalize_InsufficientStockKeepsApproved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a, b := id.New(), id.New()
	f.store.Stock.Seed(f.tenant, f.shop, a, 10)
	f.store.Stock.Seed(f.tenant, f.shop, b, 10)

	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, opname.CreateInput{
		StoreID:    f.shop,
		OpnameDate: time.Now().UTC(),
		Items: []opname.ItemInput{
			{ProductID: a, PhysicalQuantity: 12, VarianceReason: "miscounted delivery"},
			{ProductID: b, PhysicalQuantity: 3, VarianceReason: "damaged"},
		},
	})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.tenant, doc.ID, f.cashier)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.tenant, doc.ID, f.owner)
	require.NoError(t, err)

	// b is sold down after the snapshot, so its -7 variance no longer fits.
	_, err = stock.NewService(f.store.Stock, f.store.Tx, f.store.Outbox).Apply(ctx, stock.Batch{
		TenantID:  f.tenant,
		StoreID:   f.shop,
		Reference: entity.Reference{Type: "sale", ID: id.New(), Number: "SALE-1"},
		ActorID:   f.cashier.ID,
		Lines:     []stock.Line{{ProductID: b, Type: entity.MovementOut, Delta: -8}},
	})
	require.NoError(t, err)

	_, err = f.svc.Finalize(ctx, f.tenant, doc.ID, f.cashier)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, int64(10), f.store.Stock.Quantity(f.tenant, f.shop, a))
	assert.Equal(t, int64(2), f.store.Stock.Quantity(f.tenant, f.shop, b))
	assert.Empty(t, f.store.Stock.Movements(doc.ID))

	got, err := f.svc.Get(ctx, f.tenant, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)

	_, err = f.svc.Finalize(ctx, f.tenant, doc.ID, f.cashier)
	assert.True(t, apperror.IsInsufficientStock(err))
}
