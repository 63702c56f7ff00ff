package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/service"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/response"
)

// NdaHandler wires the signing wizard endpoints. The wizard posts never
// return raw errors; every failure becomes a 303 back into the wizard with
// a machine-readable error tag.
type NdaHandler struct {
	service    *service.NdaService
	wizardBase string
}

// NewNdaHandler creates a new handler. wizardBase is the frontend wizard
// path that step redirects point at.
func NewNdaHandler(svc *service.NdaService, wizardBase string) *NdaHandler {
	if wizardBase == "" {
		wizardBase = "/nda"
	}
	return &NdaHandler{service: svc, wizardBase: wizardBase}
}

// errorTag translates a wizard failure into the redirect tag and the step
// the client should re-enter at.
func errorTag(err error) (int, string) {
	appErr := appErrors.FromError(err)
	switch appErr.Code {
	case "ACKNOWLEDGMENT_REQUIRED":
		return dto.NdaStepSign, dto.NdaErrAcknowledgment
	case "SIGNATURE_INVALID", "VALIDATION_ERROR":
		return dto.NdaStepSign, dto.NdaErrSignature
	case "CONFIRM_REQUIRED":
		return dto.NdaStepPreview, dto.NdaErrConfirm
	case "PREVIEW_NOT_FOUND", "PDF_RENDER_FAILED", "TEMPLATE_UNAVAILABLE":
		return dto.NdaStepSign, dto.NdaErrPDF
	case "ALREADY_SIGNED":
		return dto.NdaStepConfirmation, ""
	default:
		return dto.NdaStepSign, dto.NdaErrServer
	}
}

func (h *NdaHandler) redirectFailure(c *gin.Context, err error) {
	step, tag := errorTag(err)
	if tag == "" {
		response.StepRedirect(c, h.wizardBase, step)
		return
	}
	response.StepError(c, h.wizardBase, step, tag)
}

// ContinueToSign godoc
// @Summary Enter the signing step
// @Description Move the wizard from review to signature collection
// @Tags NDA
// @Accept x-www-form-urlencoded
// @Success 303
// @Security BearerAuth
// @Router /nda/continue-to-sign [post]
func (h *NdaHandler) ContinueToSign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	step, err := h.service.ContinueToSign(c.Request.Context(), claims.Pin)
	if err != nil {
		h.redirectFailure(c, err)
		return
	}
	response.StepRedirect(c, h.wizardBase, step)
}

// GeneratePreview godoc
// @Summary Generate the signed preview
// @Description Build the filled agreement with the submitted signature and cache the session
// @Tags NDA
// @Accept x-www-form-urlencoded
// @Success 303
// @Security BearerAuth
// @Router /nda/preview [post]
func (h *NdaHandler) GeneratePreview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GeneratePreviewRequest
	if err := c.ShouldBind(&req); err != nil {
		response.StepError(c, h.wizardBase, dto.NdaStepSign, dto.NdaErrSignature)
		return
	}
	req.ReaderPin = claims.Pin
	req.IP = c.ClientIP()

	// A drawn signature arrives in the form body; an uploaded file takes
	// precedence when both are present.
	if file, err := c.FormFile("signatureFile"); err == nil && file != nil {
		dst := fmt.Sprintf("/tmp/sig-%s-%d%s", claims.Pin, time.Now().UnixNano(), ".png")
		if err := c.SaveUploadedFile(file, dst); err == nil {
			req.SignatureUploadPath = dst
		}
	}

	step, err := h.service.GeneratePreview(c.Request.Context(), req)
	if err != nil {
		h.redirectFailure(c, err)
		return
	}
	response.StepRedirect(c, h.wizardBase, step)
}

// PreviewPDF godoc
// @Summary Serve the cached preview
// @Description Stream the preview PDF for inline display on step 3
// @Tags NDA
// @Produce application/pdf
// @Success 200
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /nda/preview-pdf [get]
func (h *NdaHandler) PreviewPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.service.PreviewPDF(c.Request.Context(), claims.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="nda-preview.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// Sign godoc
// @Summary Finalize the agreement
// @Description Flatten and persist the agreement from the live preview session
// @Tags NDA
// @Accept x-www-form-urlencoded
// @Success 303
// @Security BearerAuth
// @Router /nda/sign [post]
func (h *NdaHandler) Sign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SignRequest
	if err := c.ShouldBind(&req); err != nil {
		response.StepError(c, h.wizardBase, dto.NdaStepPreview, dto.NdaErrConfirm)
		return
	}
	req.ReaderPin = claims.Pin
	req.IP = c.ClientIP()

	if _, err := h.service.Sign(c.Request.Context(), req); err != nil {
		h.redirectFailure(c, err)
		return
	}
	response.StepRedirect(c, h.wizardBase, dto.NdaStepConfirmation)
}

// Status godoc
// @Summary Agreement status
// @Tags NDA
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /nda/status [get]
func (h *NdaHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status, err := h.service.Status(c.Request.Context(), claims.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// View godoc
// @Summary View the signed agreement
// @Tags NDA
// @Produce application/pdf
// @Success 200
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /nda/view [get]
func (h *NdaHandler) View(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.service.SignedDocument(c.Request.Context(), claims.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Disposition", `inline; filename="nda-signed.pdf"`)
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, "nda-signed.pdf", time.Time{}, file)
}

// Download godoc
// @Summary Download a signed agreement by token
// @Description Resolve a time-limited download token issued on the status endpoint
// @Tags NDA
// @Produce application/pdf
// @Param token query string true "Download token"
// @Success 200
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /nda/download [get]
func (h *NdaHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "a download token is required"))
		return
	}
	file, err := h.service.ResolveDownloadToken(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Disposition", `attachment; filename="nda-signed.pdf"`)
	c.Header("Content-Type", "application/pdf")
	http.ServeContent(c.Writer, c.Request, "nda-signed.pdf", time.Time{}, file)
}
