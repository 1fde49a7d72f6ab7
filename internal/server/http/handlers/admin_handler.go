package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fueldrop/fueldrop/internal/domain/model"
	"github.com/fueldrop/fueldrop/internal/server/http/dto"
)

// AdminHandler covers the operator recovery and moderation endpoints.
type AdminHandler struct {
	facade DeliveryFacade
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(facade DeliveryFacade) *AdminHandler {
	return &AdminHandler{facade: facade}
}

// Approval handles POST /api/admin/drivers/:id/approval.
func (h *AdminHandler) Approval(c *gin.Context) {
	driverID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var req dto.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.facade.SetDriverApproval(c.Request.Context(), driverID, CurrentRole(c), req.Approved, req.Reason); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Active handles POST /api/admin/users/:id/active.
func (h *AdminHandler) Active(c *gin.Context) {
	userID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var req dto.ActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if err := h.facade.SetAccountActive(c.Request.Context(), userID, CurrentRole(c), req.Active, req.Reason); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Override handles POST /api/admin/orders/:id/override.
func (h *AdminHandler) Override(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.OverrideOrderStatus(c.Request.Context(), orderID, CurrentRole(c), model.OrderStatus(req.Status), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
