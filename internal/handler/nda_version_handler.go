package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/service"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/response"
)

// NdaVersionHandler manages agreement template versions.
type NdaVersionHandler struct {
	service *service.NdaVersionService
}

// NewNdaVersionHandler creates a new handler.
func NewNdaVersionHandler(svc *service.NdaVersionService) *NdaVersionHandler {
	return &NdaVersionHandler{service: svc}
}

// List godoc
// @Summary List agreement versions
// @Tags NDA
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /nda/versions [get]
func (h *NdaVersionHandler) List(c *gin.Context) {
	versions, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// Current godoc
// @Summary Current agreement version
// @Tags NDA
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /nda/versions/current [get]
func (h *NdaVersionHandler) Current(c *gin.Context) {
	version, err := h.service.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Create godoc
// @Summary Register an agreement version
// @Tags NDA
// @Accept json
// @Produce json
// @Param payload body models.NdaVersion true "Version payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /nda/versions [post]
func (h *NdaVersionHandler) Create(c *gin.Context) {
	var payload models.NdaVersion
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid version payload"))
		return
	}
	version, err := h.service.Create(c.Request.Context(), &payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// Publish godoc
// @Summary Make a version current
// @Tags NDA
// @Produce json
// @Param id path string true "Version id"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /nda/versions/{id}/publish [post]
func (h *NdaVersionHandler) Publish(c *gin.Context) {
	if err := h.service.Publish(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
