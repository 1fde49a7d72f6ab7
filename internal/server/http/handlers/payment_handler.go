package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/fueldrop/fueldrop/internal/domain/errors"
	"github.com/fueldrop/fueldrop/internal/server/http/dto"
)

// SignatureHeader carries the gateway's HMAC over the webhook body.
const SignatureHeader = "X-Gateway-Signature"

// PaymentHandler manages payment confirmation, webhooks, and refunds.
type PaymentHandler struct {
	facade PaymentFacade
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade) *PaymentHandler {
	return &PaymentHandler{facade: facade}
}

// Confirm handles POST /api/orders/:id/payment/confirm.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	order, err := h.facade.ConfirmPayment(c.Request.Context(), orderID, CurrentUserID(c), req.IntentRef)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Webhook handles POST /api/payments/webhook. Unauthenticated; trust
// comes from the body signature alone.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	err = h.facade.HandlePaymentWebhook(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if err != nil {
		if errors.Is(err, domainErrors.ErrSignature) {
			c.Status(http.StatusBadRequest)
			return
		}
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Refund handles POST /api/orders/:id/refund.
func (h *PaymentHandler) Refund(c *gin.Context) {
	orderID, ok := PathID(c)
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}
	order, err := h.facade.RefundPayment(c.Request.Context(), orderID, CurrentUserID(c), CurrentRole(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
