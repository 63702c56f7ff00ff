package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/service"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/response"
)

// ReaderHandler wires HTTP endpoints to the reader service.
type ReaderHandler struct {
	service *service.ReaderService
}

// NewReaderHandler creates a new handler.
func NewReaderHandler(svc *service.ReaderService) *ReaderHandler {
	return &ReaderHandler{service: svc}
}

// Create godoc
// @Summary Invite a reader
// @Description Create a reader account and email the credentials
// @Tags Readers
// @Accept json
// @Produce json
// @Param payload body dto.CreateReaderRequest true "Reader payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /readers [post]
func (h *ReaderHandler) Create(c *gin.Context) {
	var req dto.CreateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reader payload"))
		return
	}
	claims := claimsFromContext(c)
	adminPin := ""
	if claims != nil {
		adminPin = claims.Pin
	}

	reader, err := h.service.Create(c.Request.Context(), req, adminPin, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reader)
}

// List godoc
// @Summary List readers
// @Tags Readers
// @Produce json
// @Param role query string false "Filter by role"
// @Param status query string false "Filter by status"
// @Param nda_signed query bool false "Filter by NDA state"
// @Param search query string false "Search name or email"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /readers [get]
func (h *ReaderHandler) List(c *gin.Context) {
	filter := models.ReaderFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if role := c.Query("role"); role != "" {
		r := models.ReaderRole(role)
		filter.Role = &r
	}
	if status := c.Query("status"); status != "" {
		s := models.ReaderStatus(status)
		filter.Status = &s
	}
	if raw := c.Query("nda_signed"); raw != "" {
		if signed, err := strconv.ParseBool(raw); err == nil {
			filter.NdaSigned = &signed
		}
	}

	readers, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, readers, pagination)
}

// Get godoc
// @Summary Get a reader
// @Tags Readers
// @Produce json
// @Param pin path string true "Reader pin"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /readers/{pin} [get]
func (h *ReaderHandler) Get(c *gin.Context) {
	reader, err := h.service.Get(c.Request.Context(), c.Param("pin"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reader, nil)
}

// Update godoc
// @Summary Update reader profile
// @Tags Readers
// @Accept json
// @Produce json
// @Param pin path string true "Reader pin"
// @Param payload body dto.UpdateReaderRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /readers/{pin} [put]
func (h *ReaderHandler) Update(c *gin.Context) {
	var req dto.UpdateReaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reader payload"))
		return
	}
	reader, err := h.service.Update(c.Request.Context(), c.Param("pin"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reader, nil)
}

// UpdateStatus godoc
// @Summary Change reader access status
// @Tags Readers
// @Accept json
// @Produce json
// @Param pin path string true "Reader pin"
// @Param payload body dto.UpdateReaderStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /readers/{pin}/status [patch]
func (h *ReaderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateReaderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	claims := claimsFromContext(c)
	adminPin := ""
	if claims != nil {
		adminPin = claims.Pin
	}

	reader, err := h.service.UpdateStatus(c.Request.Context(), c.Param("pin"), req, adminPin, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reader, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
