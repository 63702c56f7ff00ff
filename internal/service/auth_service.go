package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/pkg/config"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

type authReaderStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Reader, error)
	FindByPin(ctx context.Context, pin string) (*models.Reader, error)
	UpdateTwoFactor(ctx context.Context, pin, codeHash string, expiresAt time.Time) error
	IncrementTwoFactorAttempts(ctx context.Context, pin string) error
	ClearTwoFactor(ctx context.Context, pin string) error
	UpdateSessionToken(ctx context.Context, pin string, token *string) error
}

type credentialVerifier interface {
	VerifyPassword(ctx context.Context, email, password string) (bool, error)
	IssueTwoFactorCode(ctx context.Context, pin string) (string, error)
	VerifyTwoFactorCode(ctx context.Context, pin, code string) (bool, error)
}

type codeNotifier interface {
	SendTwoFactorCode(email, name, code string, expiresAt time.Time)
}

// AuthService runs the two-step login flow. Passwords and verification
// codes are the SSOT service's responsibility; this service only holds a
// bcrypt hash of the in-flight code so replay within the window can be
// checked without a round trip.
type AuthService struct {
	readers  authReaderStore
	ssot     credentialVerifier
	notifier codeNotifier
	activity activityRecorder
	metrics  *MetricsService

	jwtCfg  config.JWTConfig
	flowCfg config.AuthFlowConfig
	logger  *zap.Logger
	now     func() time.Time
}

func NewAuthService(
	readers authReaderStore,
	ssot credentialVerifier,
	notifier codeNotifier,
	activity activityRecorder,
	metrics *MetricsService,
	jwtCfg config.JWTConfig,
	flowCfg config.AuthFlowConfig,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		readers:  readers,
		ssot:     ssot,
		notifier: notifier,
		activity: activity,
		metrics:  metrics,
		jwtCfg:   jwtCfg,
		flowCfg:  flowCfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Login verifies credentials upstream and issues a second-factor code. A
// session token is never returned from this step.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	reader, err := s.readers.FindByEmail(ctx, req.Email)
	if err != nil {
		// Same response as a bad password so accounts cannot be enumerated.
		return nil, appErrors.ErrInvalidCredentials
	}
	if reader.Status == models.StatusSuspended {
		return nil, appErrors.ErrAccessSuspended
	}

	valid, err := s.ssot.VerifyPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, appErrors.ErrInvalidCredentials
	}

	code, err := s.ssot.IssueTwoFactorCode(ctx, reader.Pin)
	if err != nil {
		return nil, err
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not store verification code")
	}

	expiresAt := s.now().Add(s.flowCfg.TwoFactorExpiry)
	if err := s.readers.UpdateTwoFactor(ctx, reader.Pin, string(codeHash), expiresAt); err != nil {
		return nil, err
	}

	s.notifier.SendTwoFactorCode(reader.Email, reader.FullName, code, expiresAt)
	s.record(ctx, reader.Pin, models.ActivityTwoFactorIssued, "verification code issued", req.IP)

	return &models.LoginResponse{
		Pin:             reader.Pin,
		CodeDeliveredTo: maskEmail(reader.Email),
		ExpiresAt:       expiresAt,
	}, nil
}

// VerifyCode completes login. The stored hash gates expiry and the attempt
// cap locally; the SSOT service remains the authority on the code itself.
func (s *AuthService) VerifyCode(ctx context.Context, req models.VerifyCodeRequest) (*models.SessionResponse, error) {
	reader, err := s.readers.FindByPin(ctx, req.Pin)
	if err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	if reader.TwoFactorCode == nil || reader.TwoFactorExpiresAt == nil {
		return nil, appErrors.ErrTwoFactorRequired
	}
	if reader.TwoFactorAttempts >= s.flowCfg.TwoFactorAttempts {
		if err := s.readers.ClearTwoFactor(ctx, req.Pin); err != nil {
			s.logger.Warn("clear two factor state failed", zap.Error(err))
		}
		return nil, appErrors.ErrTooManyAttempts
	}
	if s.now().After(*reader.TwoFactorExpiresAt) {
		if err := s.readers.ClearTwoFactor(ctx, req.Pin); err != nil {
			s.logger.Warn("clear two factor state failed", zap.Error(err))
		}
		return nil, appErrors.ErrTwoFactorExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(*reader.TwoFactorCode), []byte(req.Code)) != nil {
		return nil, s.failAttempt(ctx, reader, req.IP)
	}
	valid, err := s.ssot.VerifyTwoFactorCode(ctx, req.Pin, req.Code)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, s.failAttempt(ctx, reader, req.IP)
	}

	if err := s.readers.ClearTwoFactor(ctx, req.Pin); err != nil {
		s.logger.Warn("clear two factor state failed", zap.Error(err))
	}

	token, issuedAt, err := s.issueToken(reader)
	if err != nil {
		return nil, err
	}
	if err := s.readers.UpdateSessionToken(ctx, reader.Pin, &token); err != nil {
		return nil, err
	}

	s.record(ctx, reader.Pin, models.ActivityLogin, "logged in", req.IP)

	return &models.SessionResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtCfg.Expiration.Seconds()),
		IssuedAt:  issuedAt,
		Reader:    readerInfo(reader),
	}, nil
}

func (s *AuthService) failAttempt(ctx context.Context, reader *models.Reader, ip string) error {
	s.metrics.RecordTwoFactorFailure()
	if err := s.readers.IncrementTwoFactorAttempts(ctx, reader.Pin); err != nil {
		s.logger.Warn("increment two factor attempts failed", zap.Error(err))
	}
	s.record(ctx, reader.Pin, models.ActivityTwoFactorFailed,
		fmt.Sprintf("verification failed (attempt %d of %d)", reader.TwoFactorAttempts+1, s.flowCfg.TwoFactorAttempts), ip)
	return appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid verification code")
}

// ValidateToken parses a session token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// Logout clears the stored session token.
func (s *AuthService) Logout(ctx context.Context, pin, ip string) error {
	if err := s.readers.UpdateSessionToken(ctx, pin, nil); err != nil {
		return err
	}
	s.record(ctx, pin, models.ActivityLogout, "logged out", ip)
	return nil
}

func (s *AuthService) issueToken(reader *models.Reader) (string, time.Time, error) {
	issuedAt := s.now()
	claims := models.JWTClaims{
		Pin:   reader.Pin,
		Role:  reader.Role,
		Email: reader.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtCfg.Issuer,
			Subject:   reader.Pin,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.jwtCfg.Expiration)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not sign session token")
	}
	return token, issuedAt, nil
}

func (s *AuthService) record(ctx context.Context, pin, activityType, description, ip string) {
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

// maskEmail hides most of the local part, e.g. a****e@example.org.
func maskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 1 {
		return email
	}
	local := email[:at]
	return fmt.Sprintf("%c%s%c%s", local[0], strings.Repeat("*", len(local)-2), local[len(local)-1], email[at:])
}
