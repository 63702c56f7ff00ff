package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/pkg/config"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

type mockAuthReaders struct {
	reader *models.Reader

	storedCodeHash  string
	storedExpiresAt time.Time
	attemptBumps    int
	cleared         bool
	sessionToken    *string
	sessionUpdates  int
}

func (m *mockAuthReaders) FindByEmail(_ context.Context, email string) (*models.Reader, error) {
	if m.reader == nil || m.reader.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.reader, nil
}

func (m *mockAuthReaders) FindByPin(_ context.Context, pin string) (*models.Reader, error) {
	if m.reader == nil || m.reader.Pin != pin {
		return nil, sql.ErrNoRows
	}
	return m.reader, nil
}

func (m *mockAuthReaders) UpdateTwoFactor(_ context.Context, _, codeHash string, expiresAt time.Time) error {
	m.storedCodeHash = codeHash
	m.storedExpiresAt = expiresAt
	m.reader.TwoFactorCode = &codeHash
	m.reader.TwoFactorExpiresAt = &expiresAt
	m.reader.TwoFactorAttempts = 0
	return nil
}

func (m *mockAuthReaders) IncrementTwoFactorAttempts(context.Context, string) error {
	m.attemptBumps++
	m.reader.TwoFactorAttempts++
	return nil
}

func (m *mockAuthReaders) ClearTwoFactor(context.Context, string) error {
	m.cleared = true
	m.reader.TwoFactorCode = nil
	m.reader.TwoFactorExpiresAt = nil
	m.reader.TwoFactorAttempts = 0
	return nil
}

func (m *mockAuthReaders) UpdateSessionToken(_ context.Context, _ string, token *string) error {
	m.sessionToken = token
	m.sessionUpdates++
	return nil
}

type mockVerifier struct {
	passwordOK  bool
	passwordErr error
	issuedCode  string
	issueErr    error
	codeOK      bool
}

func (m *mockVerifier) VerifyPassword(context.Context, string, string) (bool, error) {
	return m.passwordOK, m.passwordErr
}

func (m *mockVerifier) IssueTwoFactorCode(context.Context, string) (string, error) {
	return m.issuedCode, m.issueErr
}

func (m *mockVerifier) VerifyTwoFactorCode(context.Context, string, string) (bool, error) {
	return m.codeOK, nil
}

type mockCodeNotifier struct {
	email string
	code  string
	sends int
}

func (m *mockCodeNotifier) SendTwoFactorCode(email, _, code string, _ time.Time) {
	m.email = email
	m.code = code
	m.sends++
}

type authFixture struct {
	svc      *AuthService
	readers  *mockAuthReaders
	ssot     *mockVerifier
	notifier *mockCodeNotifier
	activity *mockActivity
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	readers := &mockAuthReaders{reader: &models.Reader{
		Pin:      "JS-100001",
		FullName: "Jordan Smith",
		Email:    "jordan@example.org",
		Role:     models.RoleFirstReviewer,
		Status:   models.StatusActive,
	}}
	ssot := &mockVerifier{passwordOK: true, issuedCode: "482913", codeOK: true}
	notifier := &mockCodeNotifier{}
	activity := &mockActivity{}

	svc := NewAuthService(readers, ssot, notifier, activity, nil,
		config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "qolae-readers"},
		config.AuthFlowConfig{TwoFactorExpiry: 10 * time.Minute, TwoFactorAttempts: 3},
		nil)

	return &authFixture{svc: svc, readers: readers, ssot: ssot, notifier: notifier, activity: activity}
}

func TestLoginIssuesHashedCode(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, "JS-100001", resp.Pin)
	assert.Equal(t, "j****n@example.org", resp.CodeDeliveredTo)

	// Only a bcrypt hash of the code is persisted.
	require.NotEmpty(t, f.readers.storedCodeHash)
	assert.NotEqual(t, "482913", f.readers.storedCodeHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.readers.storedCodeHash), []byte("482913")))

	assert.Equal(t, 1, f.notifier.sends)
	assert.Equal(t, "482913", f.notifier.code)
	assert.Contains(t, f.activity.types(), models.ActivityTwoFactorIssued)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.org", Password: "pw"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Equal(t, 0, f.notifier.sends)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.ssot.passwordOK = false

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "bad"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginSuspendedReader(t *testing.T) {
	f := newAuthFixture(t)
	f.readers.reader.Status = models.StatusSuspended

	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "pw"})
	assert.ErrorIs(t, err, appErrors.ErrAccessSuspended)
}

func TestVerifyCodeHappyPath(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "pw"})
	require.NoError(t, err)

	session, err := f.svc.VerifyCode(context.Background(), models.VerifyCodeRequest{Pin: "JS-100001", Code: "482913"})
	require.NoError(t, err)

	assert.NotEmpty(t, session.Token)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.Equal(t, "JS-100001", session.Reader.Pin)
	assert.True(t, f.readers.cleared)
	require.NotNil(t, f.readers.sessionToken)
	assert.Equal(t, session.Token, *f.readers.sessionToken)

	claims, err := f.svc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "JS-100001", claims.Pin)
	assert.Equal(t, models.RoleFirstReviewer, claims.Role)
	assert.Contains(t, f.activity.types(), models.ActivityLogin)
}

func TestVerifyCodeWithoutPendingCode(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.VerifyCode(context.Background(), models.VerifyCodeRequest{Pin: "JS-100001", Code: "482913"})
	assert.ErrorIs(t, err, appErrors.ErrTwoFactorRequired)
}

func TestVerifyCodeWrongCodeCountsAttempt(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "pw"})
	require.NoError(t, err)

	_, err = f.svc.VerifyCode(context.Background(), models.VerifyCodeRequest{Pin: "JS-100001", Code: "000000"})
	require.Error(t, err)
	assert.Equal(t, 1, f.readers.attemptBumps)
	assert.Contains(t, f.activity.types(), models.ActivityTwoFactorFailed)
}

func TestVerifyCodeAttemptCap(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "pw"})
	require.NoError(t, err)
	f.readers.reader.TwoFactorAttempts = 3

	_, err = f.svc.VerifyCode(context.Background(), models.VerifyCodeRequest{Pin: "JS-100001", Code: "482913"})
	assert.ErrorIs(t, err, appErrors.ErrTooManyAttempts)
	assert.True(t, f.readers.cleared)
}

func TestVerifyCodeExpired(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "pw"})
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	f.readers.reader.TwoFactorExpiresAt = &past

	_, err = f.svc.VerifyCode(context.Background(), models.VerifyCodeRequest{Pin: "JS-100001", Code: "482913"})
	assert.ErrorIs(t, err, appErrors.ErrTwoFactorExpired)
	assert.True(t, f.readers.cleared)
}

func TestVerifyCodeUpstreamRejects(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), models.LoginRequest{Email: "jordan@example.org", Password: "pw"})
	require.NoError(t, err)
	f.ssot.codeOK = false

	_, err = f.svc.VerifyCode(context.Background(), models.VerifyCodeRequest{Pin: "JS-100001", Code: "482913"})
	require.Error(t, err)
	assert.Equal(t, 1, f.readers.attemptBumps)
}

func TestLogoutClearsSession(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.svc.Logout(context.Background(), "JS-100001", "10.0.0.1"))
	assert.Equal(t, 1, f.readers.sessionUpdates)
	assert.Nil(t, f.readers.sessionToken)
	assert.Contains(t, f.activity.types(), models.ActivityLogout)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j****n@example.org", maskEmail("jordan@example.org"))
	assert.Equal(t, "a@example.org", maskEmail("a@example.org"))
}
