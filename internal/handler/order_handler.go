package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericoliveiras/shopeasy/internal/service"
)

type OrderHandler struct {
	Orders *service.OrderService
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.Orders.ListOrders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// CreateOrder fecha o carrinho atual. O corpo da requisição é ignorado:
// o total é sempre calculado no servidor.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	order, err := h.Orders.CreateOrder(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Orders.DeleteOrder(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) PayOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.PayOrder(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pagamento realizado com sucesso.", "order": order})
}

// AdminListOrders lista pedidos de todos os usuários. ?include_deleted=true traz os excluídos.
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.Query("include_deleted"))
	orders, err := h.Orders.ListAllOrders(c.Request.Context(), includeDeleted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// AdminGetOrder busca no histórico, inclusive pedidos excluídos.
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetOrderHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
