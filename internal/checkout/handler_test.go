package checkout

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roseline-shop/storefront/internal/auth"
	"github.com/roseline-shop/storefront/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func checkoutRequestFor(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	return req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1"}))
}

func TestHandleCheckout_Created(t *testing.T) {
	products := &stubProducts{products: []domain.Product{
		{ID: 1, Name: "Rose Bouquet", Price: price("20.00"), Stock: 5},
	}}
	svc := newTestService(products, &stubOrders{}, nil)
	handler := NewHandler(svc, testLogger())

	body := `{"shipping_address":"12 Rose St","items":[{"product_id":1,"quantity":2}]}`
	rec := httptest.NewRecorder()
	handler.HandleCheckout(rec, checkoutRequestFor(t, body))

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp checkoutResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.OrderID)
}

func TestHandleCheckout_MalformedBody(t *testing.T) {
	handler := NewHandler(newTestService(&stubProducts{}, &stubOrders{}, nil), testLogger())

	rec := httptest.NewRecorder()
	handler.HandleCheckout(rec, checkoutRequestFor(t, `{"items":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheckout_EmptyItems(t *testing.T) {
	handler := NewHandler(newTestService(&stubProducts{}, &stubOrders{}, nil), testLogger())

	rec := httptest.NewRecorder()
	handler.HandleCheckout(rec, checkoutRequestFor(t, `{"shipping_address":"12 Rose St","items":[]}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCheckout_InsufficientStockConflict(t *testing.T) {
	products := &stubProducts{products: []domain.Product{
		{ID: 1, Name: "Rose Bouquet", Price: price("20.00"), Stock: 1},
	}}
	handler := NewHandler(newTestService(products, &stubOrders{}, nil), testLogger())

	body := `{"shipping_address":"12 Rose St","items":[{"product_id":1,"quantity":3}]}`
	rec := httptest.NewRecorder()
	handler.HandleCheckout(rec, checkoutRequestFor(t, body))

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp["error"], "Rose Bouquet")
}

func TestHandleCheckout_ForgedTotalStillSucceeds(t *testing.T) {
	products := &stubProducts{products: []domain.Product{
		{ID: 1, Name: "Rose Bouquet", Price: price("20.00"), Stock: 5},
	}}
	orders := &stubOrders{}
	handler := NewHandler(newTestService(products, orders, nil), testLogger())

	body := `{"shipping_address":"12 Rose St","total":"0.01","items":[{"product_id":1,"quantity":1}]}`
	rec := httptest.NewRecorder()
	handler.HandleCheckout(rec, checkoutRequestFor(t, body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, orders.created.Total.Equal(price("25.00")), "got total %s", orders.created.Total)
}
