package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/service"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/response"
)

// PaymentHandler wires HTTP endpoints to the payment service.
type PaymentHandler struct {
	service   *service.PaymentService
	dashboard *service.DashboardService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc *service.PaymentService, dashboard *service.DashboardService) *PaymentHandler {
	return &PaymentHandler{service: svc, dashboard: dashboard}
}

// Update godoc
// @Summary Advance a payment
// @Description Move an assignment's payment through its lifecycle
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Assignment id"
// @Param payload body dto.UpdatePaymentRequest true "Payment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/payment [patch]
func (h *PaymentHandler) Update(c *gin.Context) {
	var req dto.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	claims := claimsFromContext(c)
	adminPin := ""
	if claims != nil {
		adminPin = claims.Pin
	}

	assignment, err := h.service.Update(c.Request.Context(), c.Param("id"), req, adminPin, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.InvalidateSummary(c.Request.Context(), assignment.ReaderPin)
	response.JSON(c, http.StatusOK, assignment, nil)
}

// UnpaidTotal godoc
// @Summary Outstanding amount for the authenticated reader
// @Tags Payments
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /payments/unpaid [get]
func (h *PaymentHandler) UnpaidTotal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	total, err := h.service.UnpaidTotal(c.Request.Context(), claims.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unpaid_total": total}, nil)
}
