package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/ssot"
)

type fakeReaderFinder struct {
	reader *models.Reader
}

func (f *fakeReaderFinder) FindByPin(context.Context, string) (*models.Reader, error) {
	if f.reader == nil {
		return nil, sql.ErrNoRows
	}
	return f.reader, nil
}

type fakeComplianceChecker struct {
	status string
	err    error
}

func (f *fakeComplianceChecker) Status(context.Context, string) (string, error) {
	return f.status, f.err
}

func runWorkGate(t *testing.T, reader *models.Reader, compliance string, claims *models.JWTClaims) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/assignments/mine", nil)
	c.Request = req
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	passed := false
	gate := WorkGate(&fakeReaderFinder{reader: reader}, &fakeComplianceChecker{status: compliance})
	gate(c)
	if !c.IsAborted() {
		passed = true
	}
	return w, passed
}

func activeSignedReader() *models.Reader {
	return &models.Reader{
		Pin:       "JS-100001",
		Status:    models.StatusActive,
		NdaSigned: true,
	}
}

func readerClaims() *models.JWTClaims {
	return &models.JWTClaims{Pin: "JS-100001", Role: models.RoleFirstReviewer}
}

func TestWorkGatePassesCompliantReader(t *testing.T) {
	_, passed := runWorkGate(t, activeSignedReader(), ssot.ComplianceCompliant, readerClaims())
	assert.True(t, passed)
}

func TestWorkGateBlocksUnsignedNda(t *testing.T) {
	reader := activeSignedReader()
	reader.NdaSigned = false

	w, passed := runWorkGate(t, reader, ssot.ComplianceCompliant, readerClaims())
	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NDA_REQUIRED")
}

func TestWorkGateBlocksNonCompliant(t *testing.T) {
	w, passed := runWorkGate(t, activeSignedReader(), ssot.CompliancePending, readerClaims())
	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "COMPLIANCE_REQUIRED")
}

func TestWorkGateBlocksSuspended(t *testing.T) {
	reader := activeSignedReader()
	reader.Status = models.StatusSuspended

	w, passed := runWorkGate(t, reader, ssot.ComplianceCompliant, readerClaims())
	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCESS_SUSPENDED")
}

func TestWorkGateBlocksPending(t *testing.T) {
	reader := activeSignedReader()
	reader.Status = models.StatusPending

	w, passed := runWorkGate(t, reader, ssot.ComplianceCompliant, readerClaims())
	assert.False(t, passed)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWorkGateAdminBypass(t *testing.T) {
	// Admins are not readers; the gate never looks them up.
	_, passed := runWorkGate(t, nil, ssot.CompliancePending, &models.JWTClaims{Pin: "ADMIN-1", Role: models.RoleAdmin})
	assert.True(t, passed)
}

func TestWorkGateDeadSession(t *testing.T) {
	// A token whose account row no longer exists answers 401, not 500.
	w, passed := runWorkGate(t, nil, ssot.ComplianceCompliant, readerClaims())
	assert.False(t, passed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWorkGateRequiresSession(t *testing.T) {
	w, passed := runWorkGate(t, activeSignedReader(), ssot.ComplianceCompliant, nil)
	assert.False(t, passed)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
