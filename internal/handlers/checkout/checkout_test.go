package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	placing "github.com/AngelCas04/BuyMore/internal/checkout"
	"github.com/AngelCas04/BuyMore/internal/models"
)

type stubCart struct {
	items []models.CartItem
}

func (s *stubCart) Snapshot(context.Context, string) ([]models.CartItem, error) {
	return s.items, nil
}

func (s *stubCart) Clear(context.Context, string) error {
	s.items = nil
	return nil
}

type stubCatalog struct {
	products map[string]placing.PricedProduct
}

func (s *stubCatalog) Lookup(_ context.Context, productID string) (placing.PricedProduct, error) {
	p, ok := s.products[productID]
	if !ok {
		return placing.PricedProduct{}, placing.ErrProductNotFound
	}
	return p, nil
}

type stubLedger struct {
	stock      map[string]int
	reserveErr error
}

func (s *stubLedger) TryReserve(_ context.Context, productID string, qty int) error {
	if s.reserveErr != nil {
		return s.reserveErr
	}
	if s.stock[productID] < qty {
		return &placing.InsufficientStockError{ProductID: productID, Requested: qty, Available: s.stock[productID]}
	}
	s.stock[productID] -= qty
	return nil
}

func (s *stubLedger) Release(_ context.Context, productID string, qty int) error {
	s.stock[productID] += qty
	return nil
}

type stubOrders struct {
	writeErr error
	written  int
}

func (s *stubOrders) Write(context.Context, *models.Order) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.written++
	return nil
}

func (s *stubOrders) Discard(context.Context, *models.Order) error {
	s.written--
	return nil
}

const productTV = "44444444-4444-4444-4444-444444444444"

func newRouter(cart *stubCart, ledger *stubLedger, orders *stubOrders) *gin.Engine {
	gin.SetMode(gin.TestMode)
	catalog := &stubCatalog{products: map[string]placing.PricedProduct{
		productTV: {Name: "Télévision", Price: 499.99},
	}}
	SetService(placing.NewService(cart, catalog, ledger, orders, nil))

	r := gin.New()
	r.POST("/api/checkout", func(c *gin.Context) {
		c.Set("user_id", "user-test")
		c.Set("email", "test@example.com")
	}, PlaceOrder)
	return r
}

func doCheckout(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestPlaceOrderSuccess(t *testing.T) {
	cart := &stubCart{items: []models.CartItem{
		{ProductID: productTV, Name: "Télévision", Price: 499.99, Quantity: 1},
	}}
	ledger := &stubLedger{stock: map[string]int{productTV: 3}}
	orders := &stubOrders{}
	r := newRouter(cart, ledger, orders)

	w := doCheckout(r, `{"total": 499.99, "paymentMethod": "CreditCard"}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Order struct {
			TotalPrice float64 `json:"total_price"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 499.99, resp.Order.TotalPrice)
	assert.Equal(t, 2, ledger.stock[productTV])
	assert.Equal(t, 1, orders.written)
	assert.Empty(t, cart.items)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	r := newRouter(&stubCart{}, &stubLedger{stock: map[string]int{}}, &stubOrders{})

	w := doCheckout(r, `{"total": 0, "paymentMethod": "CreditCard"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMPTY_CART")
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	cart := &stubCart{items: []models.CartItem{
		{ProductID: productTV, Name: "Télévision", Price: 499.99, Quantity: 2},
	}}
	r := newRouter(cart, &stubLedger{stock: map[string]int{productTV: 1}}, &stubOrders{})

	w := doCheckout(r, `{"total": 999.98, "paymentMethod": "CreditCard"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_STOCK")
	assert.Contains(t, w.Body.String(), productTV)
}

func TestPlaceOrderPriceMismatch(t *testing.T) {
	cart := &stubCart{items: []models.CartItem{
		{ProductID: productTV, Name: "Télévision", Price: 449.99, Quantity: 1},
	}}
	r := newRouter(cart, &stubLedger{stock: map[string]int{productTV: 3}}, &stubOrders{})

	w := doCheckout(r, `{"total": 449.99, "paymentMethod": "CreditCard"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PRICE_MISMATCH")
}

func TestPlaceOrderConflict(t *testing.T) {
	cart := &stubCart{items: []models.CartItem{
		{ProductID: productTV, Name: "Télévision", Price: 499.99, Quantity: 1},
	}}
	ledger := &stubLedger{stock: map[string]int{productTV: 3}, reserveErr: placing.ErrConflict}
	r := newRouter(cart, ledger, &stubOrders{})

	w := doCheckout(r, `{"total": 499.99, "paymentMethod": "CreditCard"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "CONFLICT")
}

func TestPlaceOrderPersistenceFailure(t *testing.T) {
	cart := &stubCart{items: []models.CartItem{
		{ProductID: productTV, Name: "Télévision", Price: 499.99, Quantity: 1},
	}}
	orders := &stubOrders{writeErr: errors.New("scylla indisponible")}
	r := newRouter(cart, &stubLedger{stock: map[string]int{productTV: 3}}, orders)

	w := doCheckout(r, `{"total": 499.99, "paymentMethod": "CreditCard"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "PERSISTENCE_ERROR")
}

func TestPlaceOrderUnknownPaymentMethod(t *testing.T) {
	cart := &stubCart{items: []models.CartItem{
		{ProductID: productTV, Name: "Télévision", Price: 499.99, Quantity: 1},
	}}
	r := newRouter(cart, &stubLedger{stock: map[string]int{productTV: 3}}, &stubOrders{})

	w := doCheckout(r, `{"total": 499.99, "paymentMethod": "Chèque"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_PAYMENT_METHOD")
}

func TestPlaceOrderMalformedBody(t *testing.T) {
	r := newRouter(&stubCart{}, &stubLedger{stock: map[string]int{}}, &stubOrders{})

	w := doCheckout(r, `{"total": "pas un nombre"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
