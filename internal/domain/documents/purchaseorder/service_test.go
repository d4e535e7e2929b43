package purchaseorder_test

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
	"retailcore/internal/domain/documents/purchaseorder"
	"retailcore/internal/domain/registers/stock"
	"retailcore/internal/testing/memstore"
)

type fixture struct {
	store          *memstore.Store
	svc            *purchaseorder.Service
	tenant, shop   id.ID
	p1, p2         id.ID
	cashier, owner security.Actor
}

func newFixture() fixture {
	st := memstore.New()
	tenant := id.New()
	return fixture{
		store: st,
		svc: purchaseorder.NewService(domain.Deps{
			TxManager:  st.Tx,
			Numerator:  &numerator.MockGenerator{},
			Authorizer: security.MustDefaultPolicy(),
			Stock:      stock.NewService(st.Stock, st.Tx, st.Outbox),
			Publisher:  st.Outbox,
		}, memstore.NewDocTable[*purchaseorder.PurchaseOrder](purchaseorder.EntityName, st.Locks)),
		tenant:  tenant,
		shop:    id.New(),
		p1:      id.New(),
		p2:      id.New(),
		cashier: security.NewActor(id.New(), tenant, security.RoleManager),
		owner:   security.NewActor(id.New(), tenant, security.RoleTenantOwner),
	}
}

func (f fixture) input(store *id.ID) purchaseorder.CreateInput {
	return purchaseorder.CreateInput{
		StoreID:    store,
		SupplierID: id.New(),
		OrderDate:  time.Now().UTC(),
		Tax:        decimal.RequireFromString("1.10"),
		Items: []purchaseorder.ItemInput{
			{ProductID: f.p1, Quantity: 3, UnitPrice: decimal.RequireFromString("2.50")},
			{ProductID: f.p2, Quantity: 10, UnitPrice: decimal.RequireFromString("0.99")},
		},
	}
}

func (f fixture) approved(t *testing.T, store *id.ID) *purchaseorder.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, f.input(store))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.tenant, doc.ID, f.cashier)
	require.NoError(t, err)
	doc, err = f.svc.Approve(ctx, f.tenant, doc.ID, f.owner)
	require.NoError(t, err)
	return doc
}

func TestCreate_ComputesTotals(t *testing.T) {
	f := newFixture()
	doc, err := f.svc.Create(context.Background(), f.tenant, f.cashier, f.input(&f.shop))
	require.NoError(t, err)

	assert.Regexp(t, `^PO-\d{6}-\d{5}$`, doc.PONumber)
	assert.Equal(t, "7.50", doc.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "9.90", doc.Items[1].LineTotal.StringFixed(2))
	assert.Equal(t, "17.40", doc.Subtotal.StringFixed(2))
	assert.Equal(t, "18.50", doc.Total.StringFixed(2))
	assert.True(t, doc.Total.Equal(doc.Subtotal.Add(doc.Tax)))
}

func TestUpdate_RecomputesTotals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, f.input(&f.shop))
	require.NoError(t, err)

	tax := decimal.Zero
	updated, err := f.svc.Update(ctx, f.tenant, doc.ID, f.cashier, purchaseorder.UpdateInput{
		Tax:   &tax,
		Items: []purchaseorder.ItemInput{{ProductID: f.p1, Quantity: 4, UnitPrice: decimal.RequireFromString("1.25")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "5.00", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "5.00", updated.Total.StringFixed(2))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	in := f.input(&f.shop)
	in.Items = nil
	_, err := f.svc.Create(context.Background(), f.tenant, f.cashier, in)
	assert.True(t, apperror.IsValidation(err))

	in = f.input(&f.shop)
	in.Items[0].UnitPrice = decimal.RequireFromString("-1")
	_, err = f.svc.Create(context.Background(), f.tenant, f.cashier, in)
	assert.True(t, apperror.IsValidation(err))
}

func TestReceive_PostsInPerLine(t *testing.T) {
	f := newFixture()
	doc := f.approved(t, &f.shop)

	received, err := f.svc.Receive(context.Background(), f.tenant, doc.ID, f.cashier, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusReceived, received.Status)
	assert.Equal(t, int64(3), f.store.Stock.Quantity(f.tenant, f.shop, f.p1))
	assert.Equal(t, int64(10), f.store.Stock.Quantity(f.tenant, f.shop, f.p2))

	moves := f.store.Stock.Movements(doc.ID)
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, entity.MovementIn, m.Type)
		assert.Equal(t, doc.PONumber, m.Reference.Number)
	}
}

func TestReceive_TenantLevelOrderNeedsStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc := f.approved(t, nil)

	_, err := f.svc.Receive(ctx, f.tenant, doc.ID, f.cashier, nil)
	assert.True(t, apperror.IsValidation(err))

	got, err := f.svc.Get(ctx, f.tenant, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.Nil(t, got.StoreID)

	received, err := f.svc.Receive(ctx, f.tenant, doc.ID, f.cashier, &f.shop)
	require.NoError(t, err)
	require.NotNil(t, received.StoreID)
	assert.Equal(t, f.shop, *received.StoreID)
	assert.Equal(t, int64(3), f.store.Stock.Quantity(f.tenant, f.shop, f.p1))
}

func TestReceive_StoreMismatch(t *testing.T) {
	f := newFixture()
	doc := f.approved(t, &f.shop)
	other := id.New()

	_, err := f.svc.Receive(context.Background(), f.tenant, doc.ID, f.cashier, &other)
	assert.True(t, apperror.IsValidation(err))
}

func TestReceive_StateCheckedBeforeStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	doc, err := f.svc.Create(ctx, f.tenant, f.cashier, f.input(nil))
	require.NoError(t, err)

	_, err = f.svc.Receive(ctx, f.tenant, doc.ID, f.cashier, nil)
	assert.True(t, apperror.IsIllegalTransition(err))
}
