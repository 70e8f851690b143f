package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericoliveiras/shopeasy/internal/model"
	"github.com/ericoliveiras/shopeasy/internal/service"
)

// CartHandler expõe o carrinho do usuário autenticado.
type CartHandler struct {
	Carts *service.CartService
}

// itemRequest aceita quantity ausente, que vale 1.
type itemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  *int `json:"quantity"`
}

func (r itemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type replaceRequest struct {
	Items []service.ItemInput `json:"items"`
}

type cartResponse struct {
	*model.Cart
	ItemCount int `json:"item_count"`
}

func respondCart(c *gin.Context, cart *model.Cart) {
	c.JSON(http.StatusOK, cartResponse{Cart: cart, ItemCount: cart.ItemCount()})
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.Carts.GetOrCreateCart(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCart(c, cart)
}

// AddItem soma a quantidade ao item do produto.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos.")
		return
	}
	cart, err := h.Carts.AddItem(c.Request.Context(), currentUser(c).ID, req.ProductID, req.quantity())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCart(c, cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos.")
		return
	}
	cart, err := h.Carts.RemoveItem(c.Request.Context(), currentUser(c).ID, req.ProductID, req.quantity())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCart(c, cart)
}

// ReplaceItems substitui todo o conteúdo do carrinho.
func (h *CartHandler) ReplaceItems(c *gin.Context) {
	var req replaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos.")
		return
	}
	cart, err := h.Carts.ReplaceItems(c.Request.Context(), currentUser(c).ID, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCart(c, cart)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	cart, err := h.Carts.ClearCart(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCart(c, cart)
}
