package handlers

import (
	"net/http"

	"gift_with_purchase/models"
	"gift_with_purchase/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	cartService *services.CartService
}

func NewCartHandler(cartService *services.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type cartResponse struct {
	*models.Order
	Subtotal decimal.Decimal `json:"subtotal"`
}

func newCartResponse(order *models.Order) cartResponse {
	total := decimal.Zero
	for _, li := range order.LineItems {
		total = total.Add(li.Subtotal())
	}
	return cartResponse{Order: order, Subtotal: total}
}

type addItemRequest struct {
	PurchasableID int64 `json:"purchasable_id" binding:"required"`
	Qty           int   `json:"qty"`
}

type updateQtyRequest struct {
	Qty *int `json:"qty" binding:"required"`
}

func (h *CartHandler) CreateCart(c *gin.Context) {
	var customerID *int64
	if session, ok := services.SessionFromContext(c.Request.Context()); ok {
		customerID = session.CustomerID
	}

	order, err := h.cartService.CreateCart(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newCartResponse(order))
}

func (h *CartHandler) GetCart(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := h.cartService.GetCart(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(order))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	order, err := h.cartService.AddItem(c.Request.Context(), id, req.PurchasableID, req.Qty)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(order))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}

	var req updateQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.cartService.UpdateQty(c.Request.Context(), id, itemID, *req.Qty)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(order))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}

	order, err := h.cartService.RemoveLineItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(order))
}

func (h *CartHandler) CompleteOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := h.cartService.CompleteOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCartResponse(order))
}
