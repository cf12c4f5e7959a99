package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seabook/internal/app/dto"
	"seabook/internal/app/services/reservation"
	"seabook/internal/infra/config"
	"seabook/internal/infra/obs"
	"seabook/internal/infra/security"
	"seabook/internal/infra/storage/memory"
)

type testEnv struct {
	router *gin.Engine
	tokens security.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pricingStore := memory.NewPricingStore()
	inventoryStore := memory.NewInventoryStore()
	svc := &reservation.Service{
		Bookings:        memory.NewBookingRepository(),
		Pricing:         pricingStore,
		Inventory:       inventoryStore,
		DefaultCapacity: 2,
	}
	tokens := security.TokenManager{Secret: []byte("test-secret")}
	handlers := Handlers{
		Quote:           QuoteHandler{Service: svc},
		Booking:         BookingHandler{Service: svc},
		Admin:           AdminHandler{Store: pricingStore, Inventory: inventoryStore},
		AdminMiddleware: RequireAdmin(tokens),
		DefaultTenant:   "default",
	}
	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	router := NewRouter(cfg, obs.Middleware{}, obs.HealthHandlers{}, handlers)
	return &testEnv{router: router, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) adminHeaders(t *testing.T) map[string]string {
	t.Helper()
	token, err := e.tokens.Issue("ops", security.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func quoteBody() map[string]any {
	return map[string]any{
		"cabin_type": "inside",
		"guests":     []string{"adult", "adult"},
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/livez", nil, nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/readyz", nil, nil).Code)
}

func TestQuoteEndpoint(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPost, "/api/v1/quotes", quoteBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, int64(200_000), resp.Subtotal)
	assert.Equal(t, int64(216_000), resp.Total)
}

func TestQuoteEndpointRejectsBadInput(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/quotes", map[string]any{"guests": []string{}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/quotes", map[string]any{"guests": []string{"senior"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := quoteBody()
	body["sailing_date"] = "not-a-date"
	rec = e.do(t, http.MethodPost, "/api/v1/quotes", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHoldConfirmFlow(t *testing.T) {
	e := newTestEnv(t)
	body := quoteBody()
	body["sailing_id"] = "sail-1"
	body["hold_minutes"] = 15

	rec := e.do(t, http.MethodPost, "/api/v1/bookings/hold", body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var held dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &held))
	assert.Equal(t, "held", held.State)
	require.NotNil(t, held.HoldExpiresAt)

	rec = e.do(t, http.MethodPost, "/api/v1/bookings/"+held.ID+"/confirm", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var confirmed dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.Equal(t, "confirmed", confirmed.State)
	assert.Nil(t, confirmed.HoldExpiresAt)

	// Confirming twice conflicts.
	rec = e.do(t, http.MethodPost, "/api/v1/bookings/"+held.ID+"/confirm", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHoldSoldOut(t *testing.T) {
	e := newTestEnv(t)
	body := quoteBody()
	body["sailing_id"] = "sail-1"

	for i := 0; i < 2; i++ {
		rec := e.do(t, http.MethodPost, "/api/v1/bookings/hold", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := e.do(t, http.MethodPost, "/api/v1/bookings/hold", body, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetUnknownBooking(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/v1/bookings/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantsSeeOnlyTheirBookings(t *testing.T) {
	e := newTestEnv(t)
	body := quoteBody()
	body["sailing_id"] = "sail-1"

	rec := e.do(t, http.MethodPost, "/api/v1/bookings/hold", body, map[string]string{"X-Tenant-ID": "alpha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var held dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &held))

	rec = e.do(t, http.MethodGet, "/api/v1/bookings/"+held.ID, nil, map[string]string{"X-Tenant-ID": "beta"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/bookings/"+held.ID, nil, map[string]string{"X-Tenant-ID": "alpha"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRequiresToken(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/admin/pricing/rules", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := e.tokens.Issue("agent", "agent", time.Hour)
	require.NoError(t, err)
	rec = e.do(t, http.MethodGet, "/api/v1/admin/pricing/rules", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRuleLifecycle(t *testing.T) {
	e := newTestEnv(t)
	headers := e.adminHeaders(t)
	rule := map[string]any{
		"category_code":    "BAL1",
		"price_type":       "regular",
		"currency":         "USD",
		"min_guests":       2,
		"price_per_person": 80_000,
	}

	rec := e.do(t, http.MethodPost, "/api/v1/admin/pricing/rules", rule, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The rule now drives quotes for its category.
	quote := map[string]any{
		"cabin_category_code": "bal1",
		"guests":              []string{"adult", "adult"},
	}
	qrec := e.do(t, http.MethodPost, "/api/v1/quotes", quote, nil)
	require.Equal(t, http.StatusOK, qrec.Code)
	var resp dto.QuoteResponse
	require.NoError(t, json.Unmarshal(qrec.Body.Bytes(), &resp))
	assert.Equal(t, int64(160_000), resp.Subtotal)

	rec = e.do(t, http.MethodDelete, "/api/v1/admin/pricing/rules", rule, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodDelete, "/api/v1/admin/pricing/rules", rule, headers)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rule["effective_start"] = "June 1st"
	rec = e.do(t, http.MethodPost, "/api/v1/admin/pricing/rules", rule, headers)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRulesCSVExport(t *testing.T) {
	e := newTestEnv(t)
	headers := e.adminHeaders(t)
	rule := map[string]any{
		"category_code":    "STE2",
		"price_type":       "promo",
		"currency":         "EUR",
		"min_guests":       2,
		"price_per_person": 150_000,
		"effective_start":  "2026-06-01",
	}
	rec := e.do(t, http.MethodPost, "/api/v1/admin/pricing/rules", rule, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/admin/pricing/rules/export", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "category_code,price_type,currency,min_guests,price_per_person,effective_start,effective_end"))
	assert.Contains(t, body, "STE2,promo,EUR,2,150000,2026-06-01,")
}

func TestAdminCapacityEndpoint(t *testing.T) {
	e := newTestEnv(t)
	headers := e.adminHeaders(t)

	rec := e.do(t, http.MethodPut, "/api/v1/admin/inventory/sail-1/balcony/capacity", map[string]any{"capacity": 5}, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/admin/inventory/sail-1/balcony", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	var counts map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, 5, counts["capacity"])
	assert.Equal(t, 0, counts["held"])
}

func TestAdminConfigOverview(t *testing.T) {
	e := newTestEnv(t)
	headers := e.adminHeaders(t)

	rec := e.do(t, http.MethodPut, "/api/v1/admin/pricing/base-fares/adult", map[string]any{"amount": 120_000, "currency": "USD"}, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodPut, "/api/v1/admin/pricing/cabin-multipliers/suite", map[string]any{"multiplier": 2.5}, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodPut, "/api/v1/admin/pricing/fx", map[string]any{"base": "USD", "quote": "EUR", "rate": 0.9}, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodPut, "/api/v1/admin/pricing/fx", map[string]any{"base": "GBP", "quote": "USD", "rate": 1.27}, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/admin/pricing/config", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	var overview struct {
		BaseFares        map[string]map[string]any `json:"base_fares"`
		CabinMultipliers map[string]float64        `json:"cabin_multipliers"`
		FxRates          []map[string]any          `json:"fx_rates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	require.Contains(t, overview.BaseFares, "adult")
	assert.Equal(t, float64(120_000), overview.BaseFares["adult"]["amount"])
	assert.Equal(t, "USD", overview.BaseFares["adult"]["currency"])
	assert.Equal(t, 2.5, overview.CabinMultipliers["suite"])
	require.Len(t, overview.FxRates, 2)
	assert.Equal(t, "GBP", overview.FxRates[0]["base"])
	assert.Equal(t, "USD", overview.FxRates[1]["base"])
}

func TestAdminFxAndDemandDriveQuotes(t *testing.T) {
	e := newTestEnv(t)
	headers := e.adminHeaders(t)

	rec := e.do(t, http.MethodPut, "/api/v1/admin/pricing/fx", map[string]any{"base": "USD", "quote": "EUR", "rate": 0.9}, headers)
	require.Equal(t, http.StatusNoContent, rec.Code)

	body := quoteBody()
	body["currency"] = "EUR"
	qrec := e.do(t, http.MethodPost, "/api/v1/quotes", body, nil)
	require.Equal(t, http.StatusOK, qrec.Code)
	var resp dto.QuoteResponse
	require.NoError(t, json.Unmarshal(qrec.Body.Bytes(), &resp))
	assert.Equal(t, "EUR", resp.Currency)
	assert.Equal(t, int64(180_000), resp.Subtotal)
}
