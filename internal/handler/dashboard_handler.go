package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/middleware"
	"github.com/qolae/readers-dashboard-api/internal/service"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/response"
)

// DashboardHandler serves the reader summary aggregate.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Reader dashboard summary
// @Description Aggregate workload, earnings and compliance standing
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, hit, err := h.service.Summary(c.Request.Context(), claims.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}
