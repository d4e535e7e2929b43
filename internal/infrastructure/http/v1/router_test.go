package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/numerator"
	"retailcore/internal/core/security"
	"retailcore/internal/domain"
	"retailcore/internal/domain/auth"
	"retailcore/internal/domain/documents/adjustment"
	"retailcore/internal/domain/registers/stock"
	"retailcore/internal/infrastructure/cache"
	v1 "retailcore/internal/infrastructure/http/v1"
	"retailcore/internal/infrastructure/http/v1/middleware"
	"retailcore/internal/testing/memstore"
	"retailcore/pkg/logger"
)

type apiFixture struct {
	router  *gin.Engine
	store   *memstore.Store
	tenant  id.ID
	shop    id.ID
	product id.ID
	manager string
	owner   string
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	st := memstore.New()
	stockSvc := stock.NewService(st.Stock, st.Tx, st.Outbox)
	deps := domain.Deps{
		TxManager:  st.Tx,
		Numerator:  &numerator.MockGenerator{},
		Authorizer: security.MustDefaultPolicy(),
		Stock:      stockSvc,
		Publisher:  st.Outbox,
		Audit:      st.Audit,
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens := auth.NewJWTService(auth.DefaultJWTConfig("0123456789abcdef0123456789abcdef"))
	tenant := id.New()
	issue := func(roles ...string) string {
		tok, _, err := tokens.GenerateAccessToken(security.NewActor(id.New(), tenant, roles...))
		require.NoError(t, err)
		return tok
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger: logger.NewNop(),
		Tokens: tokens,
		Services: v1.Services{
			Adjustments: adjustment.NewService(deps,
				memstore.NewDocTable[*adjustment.StockAdjustment](adjustment.EntityName, st.Locks)),
			Stock: stockSvc,
		},
		Idempotency: cache.NewIdempotencyStore(rdb, time.Hour),
		Mode:        gin.TestMode,
	})

	return apiFixture{
		router:  router,
		store:   st,
		tenant:  tenant,
		shop:    id.New(),
		product: id.New(),
		manager: issue(security.RoleManager),
		owner:   issue(security.RoleTenantOwner),
	}
}

func (f apiFixture) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func (f apiFixture) createAdjustment(t *testing.T) adjustment.StockAdjustment {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/adjustments", f.manager, map[string]any{
		"storeId":        f.shop,
		"adjustmentDate": time.Now().UTC().Add(-time.Hour),
		"productId":      f.product,
		"type":           "add",
		"quantity":       5,
		"reason":         "found",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[adjustment.StockAdjustment](t, rec)
}

func TestAPI_AdjustmentLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	doc := f.createAdjustment(t)
	base := "/api/v1/adjustments/" + doc.ID.String()

	rec := f.do(t, http.MethodPost, base+"/submit", f.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, base+"/approve", f.owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, base+"/apply", f.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	applied := decode[adjustment.StockAdjustment](t, rec)
	assert.Equal(t, "applied", string(applied.Status))
	assert.Equal(t, int64(5), f.store.Stock.Quantity(f.tenant, f.shop, f.product))

	rec = f.do(t, http.MethodPost, base+"/apply", f.manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeAlreadyApplied, decode[middleware.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/stocks/movements?referenceId="+doc.ID.String(), f.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moves := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, rec)
	assert.Len(t, moves.Items, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/stocks/stores/"+f.shop.String()+"/verify", f.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, rec)["consistent"])
}

func TestAPI_IdempotentApplyReplays(t *testing.T) {
	f := newAPIFixture(t)
	doc := f.createAdjustment(t)
	base := "/api/v1/adjustments/" + doc.ID.String()
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/submit", f.manager, nil).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/approve", f.owner, nil).Code)

	first := f.do(t, http.MethodPost, base+"/apply", f.manager, nil, middleware.HeaderIdempotencyKey, "apply-1")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	second := f.do(t, http.MethodPost, base+"/apply", f.manager, nil, middleware.HeaderIdempotencyKey, "apply-1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get(middleware.HeaderReplayed))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(5), f.store.Stock.Quantity(f.tenant, f.shop, f.product))
}

func TestAPI_ErrorMapping(t *testing.T) {
	f := newAPIFixture(t)
	doc := f.createAdjustment(t)

	rec := f.do(t, http.MethodGet, "/api/v1/adjustments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/adjustments/"+doc.ID.String()+"/apply", f.manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperror.CodeIllegalTransition, decode[middleware.ErrorResponse](t, rec).Code)

	rec = f.do(t, http.MethodGet, "/api/v1/adjustments/not-a-uuid", f.manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/adjustments/"+id.New().String(), f.manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/adjustments/"+doc.ID.String()+"/reject", f.owner, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ListAdjustments(t *testing.T) {
	f := newAPIFixture(t)
	f.createAdjustment(t)
	f.createAdjustment(t)

	rec := f.do(t, http.MethodGet, "/api/v1/adjustments?status=draft&limit=10", f.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[domain.ListResult[adjustment.StockAdjustment]](t, rec)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, int64(2), res.TotalCount)
}

func TestAPI_DocumentHistory(t *testing.T) {
	f := newAPIFixture(t)
	doc := f.createAdjustment(t)
	base := "/api/v1/adjustments/" + doc.ID.String()
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, base+"/submit", f.manager, nil).Code)

	rec := f.do(t, http.MethodGet, base+"/history", f.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	history := decode[struct {
		Items []domain.AuditEntry `json:"items"`
	}](t, rec)
	require.Len(t, history.Items, 2)
	assert.Equal(t, "submit", history.Items[0].Action)
	assert.Equal(t, "create", history.Items[1].Action)
	assert.Equal(t, adjustment.EntityName, history.Items[1].EntityType)
	assert.Contains(t, string(history.Items[1].Snapshot), doc.AdjustmentNumber)

	rec = f.do(t, http.MethodGet, base+"/history?limit=1", f.manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[struct {
		Items []domain.AuditEntry `json:"items"`
	}](t, rec).Items, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/adjustments/"+id.New().String()+"/history", f.manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
