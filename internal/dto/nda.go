package dto

import "time"

// Wizard step numbers for the NDA signing flow.
const (
	NdaStepReview       = 1
	NdaStepSign         = 2
	NdaStepPreview      = 3
	NdaStepConfirmation = 4
)

// Wizard error tags carried on step redirects.
const (
	NdaErrAcknowledgment = "acknowledgment"
	NdaErrSignature      = "signature"
	NdaErrConfirm        = "confirm"
	NdaErrPDF            = "pdf"
	NdaErrServer         = "server"
)

// GeneratePreviewRequest carries the step-2 submission. The signature is
// accepted either as a drawn data-URL or as an uploaded file, normalised by
// the service to raw image bytes.
type GeneratePreviewRequest struct {
	ReaderPin             string `form:"readerPin" json:"readerPin" validate:"required"`
	SignatureData         string `form:"signatureData" json:"signatureData"`
	SignatureUploadPath   string `form:"-" json:"-"`
	AcknowledgmentConfirm bool   `form:"acknowledgmentConfirmed" json:"acknowledgmentConfirmed"`
	IP                    string `form:"-" json:"-"`
}

// SignRequest carries the step-4 confirmation.
type SignRequest struct {
	ReaderPin          string `form:"readerPin" json:"readerPin" validate:"required"`
	ConfirmFromPreview bool   `form:"confirmFromPreview" json:"confirmFromPreview"`
	IP                 string `form:"-" json:"-"`
}

// NdaStatusResponse summarises a reader's NDA state.
type NdaStatusResponse struct {
	Signed      bool       `json:"signed"`
	SignedAt    *time.Time `json:"signed_at,omitempty"`
	Version     string     `json:"version"`
	ContentHash string     `json:"content_hash,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
}
