package controller

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/dto"
	"storefront-service/internal/middleware"
	"storefront-service/internal/model"
	"storefront-service/internal/service"
)

type OrderService interface {
	GetByOrderID(ctx context.Context, orderID string, actor service.Actor) (*model.Order, error)
	GetAll(ctx context.Context) ([]*model.Order, error)
	GetByStatus(ctx context.Context, status string) ([]*model.Order, error)
	GetByUserID(ctx context.Context, userID string) ([]*model.Order, error)
	Cancel(ctx context.Context, orderID, productID string, actor service.Actor, reason string) (*service.ChangeResult, error)
	Return(ctx context.Context, orderID, productID string, actor service.Actor, reason string) (*service.ChangeResult, error)
	UpdateStatus(ctx context.Context, orderID, status, reason string, actor service.Actor) (*model.Order, error)
}

type OrderController struct {
	Service OrderService
}

func NewOrderController(s OrderService) *OrderController {
	return &OrderController{Service: s}
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		ID:      c.GetString(middleware.UserIDKey),
		IsAdmin: middleware.IsAdmin(c),
	}
}

// GET /orders/mine
func (ctl *OrderController) GetMyOrders(c *gin.Context) {
	orders, err := ctl.Service.GetByUserID(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GET /orders/:orderId
func (ctl *OrderController) GetOrder(c *gin.Context) {
	o, err := ctl.Service.GetByOrderID(c.Request.Context(), c.Param("orderId"), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// POST /orders/:orderId/cancel
func (ctl *OrderController) Cancel(c *gin.Context) {
	ctl.change(c, ctl.Service.Cancel)
}

// POST /orders/:orderId/return
func (ctl *OrderController) Return(c *gin.Context) {
	ctl.change(c, ctl.Service.Return)
}

type changeFunc func(ctx context.Context, orderID, productID string, actor service.Actor, reason string) (*service.ChangeResult, error)

func (ctl *OrderController) change(c *gin.Context, fn changeFunc) {
	var req dto.OrderChangeRequest
	// el body es opcional: sin body se afecta toda la orden
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, err := fn(c.Request.Context(), c.Param("orderId"), req.ProductID, actorFrom(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /admin/orders
func (ctl *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := ctl.Service.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries(orders))
}

// GET /admin/orders/status/:status
func (ctl *OrderController) GetOrdersByStatus(c *gin.Context) {
	orders, err := ctl.Service.GetByStatus(c.Request.Context(), c.Param("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries(orders))
}

// PATCH /admin/orders/:orderId/status
func (ctl *OrderController) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := ctl.Service.UpdateStatus(c.Request.Context(), c.Param("orderId"), req.Status, req.Reason, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func summaries(orders []*model.Order) []dto.OrderSummary {
	out := make([]dto.OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, dto.OrderSummary{
			OrderID:       o.OrderID,
			UserID:        o.UserID,
			Status:        string(o.Status),
			PaymentMethod: string(o.PaymentMethod),
			TotalAmount:   o.TotalAmount.String(),
			IsRefunded:    o.IsRefunded,
		})
	}
	return out
}
