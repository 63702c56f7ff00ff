package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/models"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

type mockReaderStore struct {
	byPin   map[string]*models.Reader
	byEmail map[string]*models.Reader

	statusUpdates int
}

func newMockReaderStore() *mockReaderStore {
	return &mockReaderStore{
		byPin:   make(map[string]*models.Reader),
		byEmail: make(map[string]*models.Reader),
	}
}

func (m *mockReaderStore) add(r *models.Reader) {
	m.byPin[r.Pin] = r
	m.byEmail[r.Email] = r
}

func (m *mockReaderStore) FindByPin(_ context.Context, pin string) (*models.Reader, error) {
	r, ok := m.byPin[pin]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

func (m *mockReaderStore) FindByEmail(_ context.Context, email string) (*models.Reader, error) {
	r, ok := m.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r, nil
}

func (m *mockReaderStore) Create(_ context.Context, r *models.Reader) error {
	m.add(r)
	return nil
}

func (m *mockReaderStore) Update(_ context.Context, r *models.Reader) error {
	m.byPin[r.Pin] = r
	return nil
}

func (m *mockReaderStore) UpdateStatus(_ context.Context, pin string, status models.ReaderStatus) error {
	m.byPin[pin].Status = status
	m.statusUpdates++
	return nil
}

func (m *mockReaderStore) List(_ context.Context, _ models.ReaderFilter) ([]models.Reader, int, error) {
	var out []models.Reader
	for _, r := range m.byPin {
		out = append(out, *r)
	}
	return out, len(out), nil
}

type mockInviteNotifier struct {
	email        string
	pin          string
	tempPassword string
	sends        int
}

func (m *mockInviteNotifier) SendInvitation(email, _, pin, tempPassword string) {
	m.email = email
	m.pin = pin
	m.tempPassword = tempPassword
	m.sends++
}

type readerFixture struct {
	svc      *ReaderService
	store    *mockReaderStore
	notifier *mockInviteNotifier
	activity *mockActivity
}

func newReaderFixture(t *testing.T) *readerFixture {
	t.Helper()
	store := newMockReaderStore()
	notifier := &mockInviteNotifier{}
	activity := &mockActivity{}
	svc := NewReaderService(store, notifier, activity, validator.New(), nil)
	return &readerFixture{svc: svc, store: store, notifier: notifier, activity: activity}
}

var pinPattern = regexp.MustCompile(`^[A-Z]{1,2}-\d{6}$`)

func TestCreateReaderGeneratesPinAndPassword(t *testing.T) {
	f := newReaderFixture(t)

	reader, err := f.svc.Create(context.Background(), dto.CreateReaderRequest{
		FullName: "Jordan Smith",
		Email:    "Jordan@Example.org",
		Role:     models.RoleFirstReviewer,
	}, "ADMIN-1", "10.0.0.1")
	require.NoError(t, err)

	assert.Regexp(t, pinPattern, reader.Pin)
	assert.True(t, len(reader.Pin) >= 8)
	assert.Equal(t, "JS", reader.Pin[:2])
	assert.Equal(t, "jordan@example.org", reader.Email)
	assert.Equal(t, models.StatusPending, reader.Status)

	// The invitation carries the clear-text temporary password; only the
	// bcrypt hash is stored.
	assert.Equal(t, 1, f.notifier.sends)
	require.Len(t, f.notifier.tempPassword, 12)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(reader.PasswordHash), []byte(f.notifier.tempPassword)))
	assert.Contains(t, f.activity.types(), models.ActivityReaderCreated)
}

func TestCreateReaderDuplicateEmail(t *testing.T) {
	f := newReaderFixture(t)
	f.store.add(&models.Reader{Pin: "JS-100001", Email: "jordan@example.org"})

	_, err := f.svc.Create(context.Background(), dto.CreateReaderRequest{
		FullName: "Jordan Smith",
		Email:    "jordan@example.org",
		Role:     models.RoleFirstReviewer,
	}, "ADMIN-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateReaderRejectsUnknownRole(t *testing.T) {
	f := newReaderFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateReaderRequest{
		FullName: "Jordan Smith",
		Email:    "jordan@example.org",
		Role:     "JANITOR",
	}, "ADMIN-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetUnknownReader(t *testing.T) {
	f := newReaderFixture(t)

	// The repository reports a missing row as sql.ErrNoRows; the service
	// translates it so the API answers 404 rather than 500.
	_, err := f.svc.Get(context.Background(), "ZZ-999999")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		name string
		from models.ReaderStatus
		to   models.ReaderStatus
		ok   bool
	}{
		{"activate pending", models.StatusPending, models.StatusActive, true},
		{"hold active", models.StatusActive, models.StatusOnHold, true},
		{"resume held", models.StatusOnHold, models.StatusActive, true},
		{"reinstate suspended", models.StatusSuspended, models.StatusActive, true},
		{"pending to hold", models.StatusPending, models.StatusOnHold, false},
		{"suspended to hold", models.StatusSuspended, models.StatusOnHold, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newReaderFixture(t)
			f.store.add(&models.Reader{Pin: "JS-100001", Email: "jordan@example.org", Status: tc.from})

			reader, err := f.svc.UpdateStatus(context.Background(), "JS-100001",
				dto.UpdateReaderStatusRequest{Status: tc.to, Reason: "routine"}, "ADMIN-1", "")
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.to, reader.Status)
				assert.Contains(t, f.activity.types(), models.ActivityReaderStatusChanged)
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
			}
		})
	}
}

func TestUpdateStatusNoOpWhenUnchanged(t *testing.T) {
	f := newReaderFixture(t)
	f.store.add(&models.Reader{Pin: "JS-100001", Email: "jordan@example.org", Status: models.StatusActive})

	reader, err := f.svc.UpdateStatus(context.Background(), "JS-100001",
		dto.UpdateReaderStatusRequest{Status: models.StatusActive}, "ADMIN-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, reader.Status)
	assert.Equal(t, 0, f.store.statusUpdates)
}

func TestUpdateProfile(t *testing.T) {
	f := newReaderFixture(t)
	f.store.add(&models.Reader{Pin: "JS-100001", Email: "jordan@example.org", FullName: "Jordan Smith"})

	reader, err := f.svc.Update(context.Background(), "JS-100001", dto.UpdateReaderRequest{FullName: "Jordan A. Smith"})
	require.NoError(t, err)
	assert.Equal(t, "Jordan A. Smith", reader.FullName)
}

func TestInitials(t *testing.T) {
	assert.Equal(t, "JS", initials("Jordan Smith"))
	assert.Equal(t, "JS", initials("jordan smith-jones"))
	assert.Equal(t, "J", initials("Jordan"))
	assert.Equal(t, "RD", initials(""))
}
