package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/models"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
	"github.com/qolae/readers-dashboard-api/pkg/pdfform"
	"github.com/qolae/readers-dashboard-api/pkg/storage"
)

// Errors surfaced by the signing wizard. Handlers translate the codes into
// redirect error tags, so the codes form part of the wizard contract.
var (
	ErrAcknowledgmentRequired = appErrors.New("ACKNOWLEDGMENT_REQUIRED", http.StatusBadRequest, "acknowledgment must be confirmed before signing")
	ErrSignatureInvalid       = appErrors.New("SIGNATURE_INVALID", http.StatusBadRequest, "a valid signature is required")
	ErrConfirmRequired        = appErrors.New("CONFIRM_REQUIRED", http.StatusBadRequest, "preview confirmation is required")
	ErrPreviewNotFound        = appErrors.New("PREVIEW_NOT_FOUND", http.StatusNotFound, "no live preview for this reader")
	ErrAlreadySigned          = appErrors.New("ALREADY_SIGNED", http.StatusConflict, "the agreement has already been signed")
)

type ndaReaderStore interface {
	FindByPin(ctx context.Context, pin string) (*models.Reader, error)
	UpdateNdaSigned(ctx context.Context, pin string, signedAt time.Time, artifactPath, contentHash string) error
}

type ndaVersionStore interface {
	Current(ctx context.Context) (*models.NdaVersion, error)
}

type activityRecorder interface {
	Create(ctx context.Context, entry *models.ActivityLogEntry) error
}

// NdaService drives the four-step signing wizard. Step transitions are
// serialized per reader pin so a double submit can never produce two
// signed artifacts.
type NdaService struct {
	readers  ndaReaderStore
	versions ndaVersionStore
	activity activityRecorder
	store    *storage.ArtifactStore
	signer   *storage.DownloadTokenSigner
	inserter *SignatureInserter
	previews *PreviewCache
	metrics  *MetricsService

	counterAsset string
	logger       *zap.Logger
	now          func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewNdaService(
	readers ndaReaderStore,
	versions ndaVersionStore,
	activity activityRecorder,
	store *storage.ArtifactStore,
	signer *storage.DownloadTokenSigner,
	inserter *SignatureInserter,
	previews *PreviewCache,
	metrics *MetricsService,
	counterAsset string,
	logger *zap.Logger,
) *NdaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.SetPreviewCount(previews.Len)
	return &NdaService{
		readers:      readers,
		versions:     versions,
		activity:     activity,
		store:        store,
		signer:       signer,
		inserter:     inserter,
		previews:     previews,
		metrics:      metrics,
		counterAsset: counterAsset,
		logger:       logger,
		now:          time.Now,
		locks:        make(map[string]*sync.Mutex),
	}
}

// Previews exposes the cache so its sweep loop can be started alongside the
// rest of the process.
func (s *NdaService) Previews() *PreviewCache {
	return s.previews
}

func (s *NdaService) lockPin(pin string) func() {
	s.mu.Lock()
	m, ok := s.locks[pin]
	if !ok {
		m = &sync.Mutex{}
		s.locks[pin] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// ContinueToSign validates that the reader may enter the signing step and
// returns the step to redirect to. No state is recorded.
func (s *NdaService) ContinueToSign(ctx context.Context, pin string) (int, error) {
	if pin == "" {
		return dto.NdaStepReview, appErrors.Clone(appErrors.ErrValidation, "reader pin is required")
	}
	reader, err := s.readers.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dto.NdaStepReview, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return dto.NdaStepReview, err
	}
	if reader.Status == models.StatusSuspended {
		return dto.NdaStepReview, appErrors.ErrAccessSuspended
	}
	if reader.NdaSigned {
		return dto.NdaStepConfirmation, ErrAlreadySigned
	}
	return dto.NdaStepSign, nil
}

// GeneratePreview builds the filled but unsigned-in-law preview PDF, caches
// the signing session, and returns the step the caller should land on.
func (s *NdaService) GeneratePreview(ctx context.Context, req dto.GeneratePreviewRequest) (int, error) {
	unlock := s.lockPin(req.ReaderPin)
	defer unlock()

	if !req.AcknowledgmentConfirm {
		return dto.NdaStepSign, ErrAcknowledgmentRequired
	}

	reader, err := s.readers.FindByPin(ctx, req.ReaderPin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dto.NdaStepSign, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return dto.NdaStepSign, err
	}
	if reader.Status == models.StatusSuspended {
		return dto.NdaStepSign, appErrors.ErrAccessSuspended
	}
	if reader.NdaSigned {
		return dto.NdaStepConfirmation, ErrAlreadySigned
	}

	version, err := s.versions.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dto.NdaStepSign, appErrors.Clone(appErrors.ErrNotFound, "no current agreement version")
		}
		return dto.NdaStepSign, err
	}

	doc, err := s.buildDocument(reader, version)
	if err != nil {
		return dto.NdaStepSign, err
	}

	insertion := SignatureInsertion{
		ReaderData:       req.SignatureData,
		ReaderUploadPath: req.SignatureUploadPath,
		CounterAssetPath: s.counterAsset,
		CounterRequired:  version.CounterRequired,
	}
	sigBytes, err := s.inserter.ReaderSignatureBytes(insertion)
	if err != nil {
		return dto.NdaStepSign, ErrSignatureInvalid
	}
	result := s.inserter.Insert(doc, insertion)
	if !result.ReaderSigned {
		return dto.NdaStepSign, ErrSignatureInvalid
	}

	rendered, err := doc.Render()
	if err != nil {
		return dto.NdaStepSign, appErrors.Wrap(err, "PDF_RENDER_FAILED", http.StatusInternalServerError, "preview could not be generated")
	}

	previewPath := s.store.GeneratedPath(reader.Pin, previewFilename(version.Version))
	if _, err := s.store.Save(previewPath, rendered); err != nil {
		return dto.NdaStepSign, appErrors.Wrap(err, "PDF_RENDER_FAILED", http.StatusInternalServerError, "preview could not be stored")
	}

	s.previews.Save(PreviewEntry{
		ReaderPin: reader.Pin,
		FilePath:  previewPath,
		Signature: sigBytes,
		Reader:    readerInfo(reader),
		Version:   *version,
		Document:  doc,
	})

	s.metrics.RecordNdaPreview()
	s.record(ctx, reader.Pin, models.ActivityNdaPreview, fmt.Sprintf("generated preview for agreement %s", version.Version), req.IP)
	return dto.NdaStepPreview, nil
}

// PreviewPDF returns the cached preview bytes for inline display. A missing
// or expired session yields ErrPreviewNotFound rather than a stale file.
func (s *NdaService) PreviewPDF(ctx context.Context, pin string) ([]byte, error) {
	entry, ok := s.previews.Get(pin)
	if !ok {
		return nil, ErrPreviewNotFound
	}
	data, err := s.store.Read(entry.FilePath)
	if err != nil {
		s.previews.Delete(pin)
		return nil, ErrPreviewNotFound
	}
	return data, nil
}

// Sign finalizes the agreement from the live preview session. The cached
// session is consumed whether or not persistence succeeds downstream of the
// artifact write, so a retry restarts from the preview step.
func (s *NdaService) Sign(ctx context.Context, req dto.SignRequest) (*dto.NdaStatusResponse, error) {
	unlock := s.lockPin(req.ReaderPin)
	defer unlock()

	if !req.ConfirmFromPreview {
		return nil, ErrConfirmRequired
	}

	entry, ok := s.previews.Get(req.ReaderPin)
	if !ok {
		return nil, ErrPreviewNotFound
	}

	reader, err := s.readers.FindByPin(ctx, req.ReaderPin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, err
	}
	if reader.Status == models.StatusSuspended {
		return nil, appErrors.ErrAccessSuspended
	}
	if reader.NdaSigned {
		s.previews.Delete(req.ReaderPin)
		return nil, ErrAlreadySigned
	}

	entry.Document.Flatten()
	final, err := entry.Document.Render()
	if err != nil {
		return nil, appErrors.Wrap(err, "PDF_RENDER_FAILED", http.StatusInternalServerError, "final agreement could not be rendered")
	}

	sum := sha256.Sum256(final)
	contentHash := hex.EncodeToString(sum[:])
	signedAt := s.now()

	signedPath := s.store.SignedPath(reader.Pin, signedFilename(entry.Version.Version))
	if _, err := s.store.Save(signedPath, final); err != nil {
		return nil, appErrors.Wrap(err, "PDF_RENDER_FAILED", http.StatusInternalServerError, "final agreement could not be stored")
	}
	if len(entry.Signature) > 0 {
		sigPath := s.store.SignaturePath(reader.Pin, "reader-signature.png")
		if _, err := s.store.Save(sigPath, entry.Signature); err != nil {
			s.logger.Warn("raw signature archive failed", zap.String("pin", reader.Pin), zap.Error(err))
		}
	}

	if err := s.readers.UpdateNdaSigned(ctx, reader.Pin, signedAt, signedPath, contentHash); err != nil {
		return nil, err
	}

	s.previews.Delete(req.ReaderPin)
	_ = s.store.Delete(entry.FilePath)

	s.metrics.RecordNdaSigned()
	s.record(ctx, reader.Pin, models.ActivityNdaSigned, fmt.Sprintf("signed agreement %s", entry.Version.Version), req.IP)
	s.logger.Info("nda signed",
		zap.String("pin", reader.Pin),
		zap.String("version", entry.Version.Version),
		zap.String("content_hash", contentHash))

	return s.statusResponse(entry.Version.Version, true, &signedAt, contentHash, reader.Pin, signedPath), nil
}

// Status reports the reader's signing state against the current version.
func (s *NdaService) Status(ctx context.Context, pin string) (*dto.NdaStatusResponse, error) {
	reader, err := s.readers.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, err
	}
	version, err := s.versions.Current(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current agreement version")
		}
		return nil, err
	}
	if !reader.NdaSigned {
		return &dto.NdaStatusResponse{Signed: false, Version: version.Version}, nil
	}
	var hash string
	if reader.NdaContentHash != nil {
		hash = *reader.NdaContentHash
	}
	var path string
	if reader.NdaArtifactPath != nil {
		path = *reader.NdaArtifactPath
	}
	return s.statusResponse(version.Version, true, reader.NdaSignedAt, hash, pin, path), nil
}

// SignedDocument opens the finalized artifact for viewing or download.
func (s *NdaService) SignedDocument(ctx context.Context, pin string) (*os.File, error) {
	reader, err := s.readers.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, err
	}
	if !reader.NdaSigned || reader.NdaArtifactPath == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no signed agreement on file")
	}
	file, err := s.store.Open(*reader.NdaArtifactPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "signed agreement missing from storage")
	}
	return file, nil
}

// ResolveDownloadToken validates a signed download token and opens the
// referenced artifact.
func (s *NdaService) ResolveDownloadToken(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, err
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "signed agreement missing from storage")
	}
	return file, nil
}

func (s *NdaService) statusResponse(version string, signed bool, signedAt *time.Time, hash, pin, path string) *dto.NdaStatusResponse {
	resp := &dto.NdaStatusResponse{
		Signed:      signed,
		SignedAt:    signedAt,
		Version:     version,
		ContentHash: hash,
	}
	if path != "" && s.signer != nil {
		if token, _, err := s.signer.Generate(pin, path); err == nil {
			resp.DownloadURL = "/api/v1/nda/download?token=" + token
		}
	}
	return resp
}

func (s *NdaService) buildDocument(reader *models.Reader, version *models.NdaVersion) (*pdfform.Document, error) {
	raw, err := s.store.Read(s.store.TemplatePath(version.TemplatePath))
	if err != nil {
		return nil, appErrors.Wrap(err, "TEMPLATE_UNAVAILABLE", http.StatusInternalServerError, "agreement template could not be loaded")
	}
	tpl, err := pdfform.ParseTemplate(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, "TEMPLATE_UNAVAILABLE", http.StatusInternalServerError, "agreement template is malformed")
	}
	doc := pdfform.NewDocument(tpl)
	_ = doc.SetValue("reader_name", reader.FullName)
	_ = doc.SetValue("reader_pin", reader.Pin)
	_ = doc.SetValue("signed_date", s.now().Format("2 January 2006"))
	return doc, nil
}

func (s *NdaService) record(ctx context.Context, pin, activityType, description, ip string) {
	entry := &models.ActivityLogEntry{
		ReaderPin:    pin,
		ActivityType: activityType,
		Description:  description,
		IPAddress:    ip,
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed", zap.String("type", activityType), zap.Error(err))
	}
}

func readerInfo(r *models.Reader) models.ReaderInfo {
	return models.ReaderInfo{
		Pin:       r.Pin,
		Email:     r.Email,
		FullName:  r.FullName,
		Role:      r.Role,
		Status:    r.Status,
		NdaSigned: r.NdaSigned,
	}
}

func previewFilename(version string) string {
	return fmt.Sprintf("nda-%s-preview.pdf", version)
}

func signedFilename(version string) string {
	return fmt.Sprintf("nda-%s-signed.pdf", version)
}
