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

// AssignmentHandler wires HTTP endpoints to the assignment service.
type AssignmentHandler struct {
	service   *service.AssignmentService
	dashboard *service.DashboardService
}

// NewAssignmentHandler creates a new handler.
func NewAssignmentHandler(svc *service.AssignmentService, dashboard *service.DashboardService) *AssignmentHandler {
	return &AssignmentHandler{service: svc, dashboard: dashboard}
}

// Create godoc
// @Summary Assign a report to a reader
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	claims := claimsFromContext(c)
	adminPin := ""
	if claims != nil {
		adminPin = claims.Pin
	}

	assignment, err := h.service.Create(c.Request.Context(), req, adminPin, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.InvalidateSummary(c.Request.Context(), req.ReaderPin)
	response.Created(c, assignment)
}

// List godoc
// @Summary List assignments
// @Description Admin view including internal fields
// @Tags Assignments
// @Produce json
// @Param reader_pin query string false "Filter by reader"
// @Param payment_status query string false "Filter by payment status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	filter := assignmentFilterFromQuery(c)
	filter.ReaderPin = c.Query("reader_pin")

	assignments, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, pagination)
}

// ListMine godoc
// @Summary List the authenticated reader's assignments
// @Description Reader view; internal case references are withheld
// @Tags Assignments
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/mine [get]
func (h *AssignmentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assignments, pagination, err := h.service.ListForReader(c.Request.Context(), claims.Pin, assignmentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, pagination)
}

// Get godoc
// @Summary Get an assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if claims.Role == models.RoleAdmin {
		assignment, err := h.service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, assignment, nil)
		return
	}

	assignment, err := h.service.GetForReader(c.Request.Context(), c.Param("id"), claims.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	projected := dto.ToReaderAssignment(*assignment)
	response.JSON(c, http.StatusOK, projected, nil)
}

// SubmitCorrection godoc
// @Summary Submit a corrected report
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment id"
// @Param payload body dto.SubmitCorrectionRequest true "Correction payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/correction [post]
func (h *AssignmentHandler) SubmitCorrection(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SubmitCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid correction payload"))
		return
	}

	assignment, err := h.service.SubmitCorrection(c.Request.Context(), c.Param("id"), claims.Pin, req, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.InvalidateSummary(c.Request.Context(), claims.Pin)
	response.JSON(c, http.StatusOK, dto.ToReaderAssignment(*assignment), nil)
}

// Approve godoc
// @Summary Approve a submitted correction
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/approve [post]
func (h *AssignmentHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	adminPin := ""
	if claims != nil {
		adminPin = claims.Pin
	}

	assignment, err := h.service.Approve(c.Request.Context(), c.Param("id"), adminPin, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.InvalidateSummary(c.Request.Context(), assignment.ReaderPin)
	response.JSON(c, http.StatusOK, assignment, nil)
}

func assignmentFilterFromQuery(c *gin.Context) models.AssignmentFilter {
	filter := models.AssignmentFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if status := c.Query("payment_status"); status != "" {
		s := models.PaymentStatus(status)
		filter.PaymentStatus = &s
	}
	if raw := c.Query("submitted"); raw != "" {
		if submitted, err := strconv.ParseBool(raw); err == nil {
			filter.Submitted = &submitted
		}
	}
	return filter
}
