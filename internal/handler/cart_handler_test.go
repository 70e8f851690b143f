package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericoliveiras/shopeasy/internal/testutil"
)

type cartBody struct {
	ID         uint            `json:"id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ItemCount  int             `json:"item_count"`
	Items      []struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	} `json:"items"`
}

func TestGetCartCreatesEmptyCart(t *testing.T) {
	s := newTestServer(t)
	_, token := s.customer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/carts/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart cartBody
	decode(t, rec, &cart)
	assert.NotZero(t, cart.ID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())

	rec = s.do(t, http.MethodGet, "/api/v1/carts/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddAndRemoveItems(t *testing.T) {
	s := newTestServer(t)
	_, token := s.customer(t)
	product := testutil.CreateProduct(t, s.db, "12.00", 10)

	rec := s.do(t, http.MethodPost, "/api/v1/carts/items", gin.H{"product_id": product.ID}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/v1/carts/items", gin.H{"product_id": product.ID, "quantity": 2}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var cart cartBody
	decode(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 3, cart.ItemCount)
	assert.True(t, cart.TotalPrice.Equal(decimal.RequireFromString("36")))

	rec = s.do(t, http.MethodDelete, "/api/v1/carts/items", gin.H{"product_id": product.ID, "quantity": 2}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &cart)
	assert.Equal(t, 1, cart.Items[0].Quantity)

	rec = s.do(t, http.MethodDelete, "/api/v1/carts/items", gin.H{"product_id": product.ID, "quantity": 5}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = cartBody{}
	decode(t, rec, &cart)
	assert.Empty(t, cart.Items)
}

func TestAddItemErrors(t *testing.T) {
	s := newTestServer(t)
	_, token := s.customer(t)
	product := testutil.CreateProduct(t, s.db, "1.00", 1)

	rec := s.do(t, http.MethodPost, "/api/v1/carts/items", gin.H{"product_id": product.ID, "quantity": 0}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/carts/items", gin.H{"quantity": 1}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/carts/items", gin.H{"product_id": 9999}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/carts/items", gin.H{"product_id": product.ID}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplaceAndClearCart(t *testing.T) {
	s := newTestServer(t)
	_, token := s.customer(t)
	a := testutil.CreateProduct(t, s.db, "2.50", 10)
	b := testutil.CreateProduct(t, s.db, "1.00", 10)

	rec := s.do(t, http.MethodPut, "/api/v1/carts/me", gin.H{"items": []gin.H{
		{"product_id": a.ID, "quantity": 2},
		{"product_id": b.ID, "quantity": 3},
	}}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cart cartBody
	decode(t, rec, &cart)
	assert.Len(t, cart.Items, 2)
	assert.True(t, cart.TotalPrice.Equal(decimal.RequireFromString("8")))

	rec = s.do(t, http.MethodDelete, "/api/v1/carts/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	cart = cartBody{}
	decode(t, rec, &cart)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())
}
