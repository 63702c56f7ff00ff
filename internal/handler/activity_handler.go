package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/service"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/response"
)

// ActivityHandler exposes the append-only activity log.
type ActivityHandler struct {
	service *service.ActivityService
}

// NewActivityHandler creates a new handler.
func NewActivityHandler(svc *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: svc}
}

// List godoc
// @Summary List activity entries
// @Description Admins see everything; readers only their own rows
// @Tags Activity
// @Produce json
// @Param reader_pin query string false "Filter by reader (admin only)"
// @Param activity_type query string false "Filter by type"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.ActivityFilter{
		ActivityType: c.Query("activity_type"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 50),
	}
	if claims.Role == models.RoleAdmin {
		filter.ReaderPin = c.Query("reader_pin")
	} else {
		filter.ReaderPin = claims.Pin
	}

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
