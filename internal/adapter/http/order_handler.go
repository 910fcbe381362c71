package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dtnguyen/shop-api/internal/adapter/http/middleware"
	domain "github.com/dtnguyen/shop-api/internal/entity"
	"github.com/dtnguyen/shop-api/internal/usecase"
)

type OrderHandler struct {
	orders *usecase.Orders
}

func NewOrderHandler(orders *usecase.Orders) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemReq struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type shippingAddressReq struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	ZipCode string `json:"zipCode" binding:"required"`
	Country string `json:"country"`
}

type createOrderReq struct {
	OrderItems      []orderItemReq     `json:"orderItems" binding:"required"`
	ShippingAddress shippingAddressReq `json:"shippingAddress" binding:"required"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required"`
	TaxPrice        decimal.Decimal    `json:"taxPrice"`
	ShippingPrice   decimal.Decimal    `json:"shippingPrice"`
}

// CreateOrder handler: translate to use case input
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err))
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	caller := middleware.CurrentUser(c)
	items := make([]usecase.RequestedItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, usecase.RequestedItem{ProductID: it.Product, Quantity: it.Quantity})
	}

	order, err := h.orders.Create(ctx, usecase.CreateOrderInput{
		UserID:         caller.ID,
		IdempotencyKey: idemKey,
		Items:          items,
		ShippingAddress: domain.ShippingAddress{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
		},
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusCreated, order)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	order, err := h.orders.GetByID(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.orders.ListMine(c.Request.Context(), middleware.CurrentUser(c), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondPage(c, result)
}

func (h *OrderHandler) PayOrder(c *gin.Context) {
	order, err := h.orders.Pay(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondData(c, http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orders.Cancel(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Order cancelled", order)
}
