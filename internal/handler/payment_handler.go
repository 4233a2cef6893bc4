package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquaflow/aquaflow-api/internal/service"
	appErrors "github.com/aquaflow/aquaflow-api/pkg/errors"
	"github.com/aquaflow/aquaflow-api/pkg/response"
)

// PaymentHandler exposes payment record endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Record godoc
// @Summary Record a completed payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/payment [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.payments.Record(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Refund godoc
// @Summary Refund a payment on a cancelled request
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Service request ID"
// @Param payload body service.RefundRequest true "Refund payload"
// @Success 200 {object} response.Envelope
// @Router /services/{id}/payment/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req service.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.payments.Refund(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
