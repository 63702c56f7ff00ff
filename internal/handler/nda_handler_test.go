package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolae/readers-dashboard-api/internal/middleware"
	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/service"
	"github.com/qolae/readers-dashboard-api/pkg/storage"
)

type fakeNdaReaders struct {
	reader *models.Reader
}

func (f *fakeNdaReaders) FindByPin(_ context.Context, pin string) (*models.Reader, error) {
	if f.reader == nil || f.reader.Pin != pin {
		return nil, sql.ErrNoRows
	}
	return f.reader, nil
}

func (f *fakeNdaReaders) UpdateNdaSigned(_ context.Context, _ string, signedAt time.Time, artifactPath, contentHash string) error {
	f.reader.NdaSigned = true
	f.reader.NdaSignedAt = &signedAt
	f.reader.NdaArtifactPath = &artifactPath
	f.reader.NdaContentHash = &contentHash
	return nil
}

type fakeNdaVersions struct {
	version *models.NdaVersion
}

func (f *fakeNdaVersions) Current(context.Context) (*models.NdaVersion, error) {
	return f.version, nil
}

type fakeActivity struct{}

func (fakeActivity) Create(context.Context, *models.ActivityLogEntry) error { return nil }

func newWizardHandler(t *testing.T) (*NdaHandler, *fakeNdaReaders) {
	t.Helper()

	store, err := storage.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	_, err = store.Save(store.TemplatePath("nda-v1.json"),
		[]byte(`{"version":"1.0","title":"Confidentiality Agreement","clauses":["Keep all case material confidential."]}`))
	require.NoError(t, err)

	readers := &fakeNdaReaders{reader: &models.Reader{
		Pin:      "JS-100001",
		FullName: "Jordan Smith",
		Email:    "jordan@example.org",
		Role:     models.RoleFirstReviewer,
		Status:   models.StatusActive,
	}}
	versions := &fakeNdaVersions{version: &models.NdaVersion{
		ID: "v1", Version: "1.0", Title: "Confidentiality Agreement",
		TemplatePath: "nda-v1.json", IsCurrent: true,
	}}

	svc := service.NewNdaService(readers, versions, fakeActivity{}, store,
		storage.NewDownloadTokenSigner("test-secret", 30*time.Minute),
		service.NewSignatureInserter(nil),
		service.NewPreviewCache(10*time.Minute, nil, nil),
		nil, "", nil)

	return NewNdaHandler(svc, "/readers/nda"), readers
}

func sessionFor(pin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{Pin: pin, Role: models.RoleFirstReviewer})
	}
}

// wizardPost serves the form through a real router so the redirect status
// is flushed the way it is in production.
func wizardPost(t *testing.T, h gin.HandlerFunc, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/nda", sessionFor("JS-100001"), h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/nda", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func signaturePNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestWizardContinueToSignRedirect(t *testing.T) {
	h, _ := newWizardHandler(t)

	w := wizardPost(t, h.ContinueToSign, url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=2", w.Header().Get("Location"))
}

func TestWizardPreviewWithoutAcknowledgment(t *testing.T) {
	h, _ := newWizardHandler(t)

	w := wizardPost(t, h.GeneratePreview, url.Values{
		"signatureData": {signaturePNG(t)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=2&error=acknowledgment", w.Header().Get("Location"))
}

func TestWizardPreviewWithoutSignature(t *testing.T) {
	h, _ := newWizardHandler(t)

	w := wizardPost(t, h.GeneratePreview, url.Values{
		"acknowledgmentConfirmed": {"true"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=2&error=signature", w.Header().Get("Location"))
}

func TestWizardSignWithoutPreview(t *testing.T) {
	h, _ := newWizardHandler(t)

	w := wizardPost(t, h.Sign, url.Values{
		"confirmFromPreview": {"true"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=2&error=pdf", w.Header().Get("Location"))
}

func TestWizardFullFlow(t *testing.T) {
	h, readers := newWizardHandler(t)

	w := wizardPost(t, h.GeneratePreview, url.Values{
		"acknowledgmentConfirmed": {"true"},
		"signatureData":           {signaturePNG(t)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=3", w.Header().Get("Location"))

	w = wizardPost(t, h.Sign, url.Values{
		"confirmFromPreview": {"true"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=4", w.Header().Get("Location"))
	assert.True(t, readers.reader.NdaSigned)

	// The one-shot session is consumed; a replay is sent back to rebuild
	// the preview rather than signing twice.
	w = wizardPost(t, h.Sign, url.Values{
		"confirmFromPreview": {"true"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=2&error=pdf", w.Header().Get("Location"))
	assert.True(t, readers.reader.NdaSigned)
}

func TestWizardSignWithoutConfirmation(t *testing.T) {
	h, _ := newWizardHandler(t)

	w := wizardPost(t, h.GeneratePreview, url.Values{
		"acknowledgmentConfirmed": {"true"},
		"signatureData":           {signaturePNG(t)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = wizardPost(t, h.Sign, url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/readers/nda?step=3&error=confirm", w.Header().Get("Location"))
}

func TestWizardPreviewPDFServesDocument(t *testing.T) {
	h, _ := newWizardHandler(t)

	w := wizardPost(t, h.GeneratePreview, url.Values{
		"acknowledgmentConfirmed": {"true"},
		"signatureData":           {signaturePNG(t)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/nda/preview-pdf", sessionFor("JS-100001"), h.PreviewPDF)
	rec := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/nda/preview-pdf", nil)
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestWizardRequiresSession(t *testing.T) {
	h, _ := newWizardHandler(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/nda", h.ContinueToSign)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/nda", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
