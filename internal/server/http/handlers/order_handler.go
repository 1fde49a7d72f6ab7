package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/server/http/dto"
	"github.com/fueldrop/fueldrop/internal/usecase"
)

// OrderHandler manages the order lifecycle endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Place handles POST /api/orders.
func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.PlaceOrder(c.Request.Context(), usecase.PlaceOrderInput{
		CustomerID:    CurrentUserID(c),
		FuelType:      model.FuelType(req.FuelType),
		QuantityMilli: int64(math.Round(req.Quantity * 1000)),
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		Address: model.Address{
			Line:         req.Address.Line,
			Landmark:     req.Address.Landmark,
			Instructions: req.Address.Instructions,
			Latitude:     req.Address.Latitude,
			Longitude:    req.Address.Longitude,
		},
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context(), CurrentUserID(c), CurrentRole(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, toOrderResponses(orders))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	order, err := h.facade.Order(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Timeline handles GET /api/orders/:id/timeline.
func (h *OrderHandler) Timeline(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	milestones, err := h.facade.Timeline(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c))
	if err != nil {
		RespondError(c, err)
		return
	}

	resp := make([]dto.MilestoneResponse, 0, len(milestones))
	for _, m := range milestones {
		resp = append(resp, dto.MilestoneResponse{Kind: string(m.Kind), OccurredAt: m.OccurredAt, Payload: m.Payload})
	}
	c.JSON(http.StatusOK, resp)
}

// Accept handles POST /api/orders/:id/accept.
func (h *OrderHandler) Accept(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	order, err := h.facade.AcceptOrder(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Advance handles POST /api/orders/:id/advance.
func (h *OrderHandler) Advance(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var req dto.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.AdvanceOrder(c.Request.Context(), usecase.AdvanceInput{
		OrderID:  orderID,
		DriverID: CurrentUserID(c),
		Role:     CurrentRole(c),
		To:       model.OrderStatus(req.Status),
		Proof:    req.Proof,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var req dto.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.CancelOrder(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Rate handles POST /api/orders/:id/rating.
func (h *OrderHandler) Rate(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var req dto.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.RateOrder(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c), req.Score, req.Comment)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
