package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/models"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

type readerStore interface {
	FindByPin(ctx context.Context, pin string) (*models.Reader, error)
	FindByEmail(ctx context.Context, email string) (*models.Reader, error)
	Create(ctx context.Context, reader *models.Reader) error
	Update(ctx context.Context, reader *models.Reader) error
	UpdateStatus(ctx context.Context, pin string, status models.ReaderStatus) error
	List(ctx context.Context, filter models.ReaderFilter) ([]models.Reader, int, error)
}

type invitationNotifier interface {
	SendInvitation(email, name, pin, tempPassword string)
}

// statusTransitions lists the legal reader lifecycle moves. Anything not
// listed is rejected; accounts never leave the table.
var statusTransitions = map[models.ReaderStatus][]models.ReaderStatus{
	models.StatusPending:   {models.StatusActive, models.StatusSuspended},
	models.StatusActive:    {models.StatusOnHold, models.StatusSuspended},
	models.StatusOnHold:    {models.StatusActive, models.StatusSuspended},
	models.StatusSuspended: {models.StatusActive},
}

// ReaderService manages reader accounts: invitation, profile updates and
// the access lifecycle.
type ReaderService struct {
	readers  readerStore
	notifier invitationNotifier
	activity activityRecorder
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

func NewReaderService(
	readers readerStore,
	notifier invitationNotifier,
	activity activityRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReaderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReaderService{
		readers:  readers,
		notifier: notifier,
		activity: activity,
		validate: validate,
		logger:   logger,
		now:      time.Now,
	}
}

// Create invites a new reader. The generated pin becomes the permanent
// identifier and the temporary password is delivered by email only.
func (s *ReaderService) Create(ctx context.Context, req dto.CreateReaderRequest, adminPin, ip string) (*models.Reader, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reader payload")
	}
	if existing, err := s.readers.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a reader with this email already exists")
	}

	pin, err := s.uniquePin(ctx, req.FullName)
	if err != nil {
		return nil, err
	}
	tempPassword, err := randomString(12)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not generate temporary password")
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not hash temporary password")
	}

	reader := &models.Reader{
		Pin:          pin,
		FullName:     req.FullName,
		Email:        strings.ToLower(req.Email),
		Role:         req.Role,
		PasswordHash: string(passwordHash),
		Status:       models.StatusPending,
	}
	if err := s.readers.Create(ctx, reader); err != nil {
		return nil, err
	}

	s.notifier.SendInvitation(reader.Email, reader.FullName, reader.Pin, tempPassword)
	s.record(ctx, reader.Pin, models.ActivityReaderCreated,
		fmt.Sprintf("reader invited by %s", adminPin), ip)
	s.logger.Info("reader created", zap.String("pin", reader.Pin), zap.String("role", string(reader.Role)))

	return reader, nil
}

func (s *ReaderService) Get(ctx context.Context, pin string) (*models.Reader, error) {
	reader, err := s.readers.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, err
	}
	return reader, nil
}

func (s *ReaderService) List(ctx context.Context, filter models.ReaderFilter) ([]models.Reader, *models.Pagination, error) {
	readers, total, err := s.readers.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return readers, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Update changes the reader's own profile fields.
func (s *ReaderService) Update(ctx context.Context, pin string, req dto.UpdateReaderRequest) (*models.Reader, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reader payload")
	}
	reader, err := s.readers.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, err
	}
	reader.FullName = req.FullName
	if err := s.readers.Update(ctx, reader); err != nil {
		return nil, err
	}
	return reader, nil
}

// UpdateStatus moves a reader through the access lifecycle.
func (s *ReaderService) UpdateStatus(ctx context.Context, pin string, req dto.UpdateReaderStatusRequest, adminPin, ip string) (*models.Reader, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	reader, err := s.readers.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, err
	}
	if reader.Status == req.Status {
		return reader, nil
	}
	if !transitionAllowed(reader.Status, req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot move reader from %s to %s", reader.Status, req.Status))
	}
	if err := s.readers.UpdateStatus(ctx, pin, req.Status); err != nil {
		return nil, err
	}
	reader.Status = req.Status

	description := fmt.Sprintf("status changed to %s by %s", req.Status, adminPin)
	if req.Reason != "" {
		description += ": " + req.Reason
	}
	s.record(ctx, pin, models.ActivityReaderStatusChanged, description, ip)

	return reader, nil
}

func transitionAllowed(from, to models.ReaderStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// uniquePin derives a pin like "JS-482913" from the reader's initials,
// retrying on the unlikely collision.
func (s *ReaderService) uniquePin(ctx context.Context, fullName string) (string, error) {
	prefix := initials(fullName)
	for attempt := 0; attempt < 5; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(900000))
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not generate pin")
		}
		pin := fmt.Sprintf("%s-%06d", prefix, n.Int64()+100000)
		if _, err := s.readers.FindByPin(ctx, pin); err != nil {
			return pin, nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not allocate a unique pin")
}

func initials(fullName string) string {
	var b strings.Builder
	for _, part := range strings.Fields(fullName) {
		for _, r := range part {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "RD"
	}
	return b.String()
}

const passwordCharset = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

func randomString(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}

func (s *ReaderService) record(ctx context.Context, pin, activityType, description, ip string) {
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
