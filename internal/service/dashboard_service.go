package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/internal/dto"
	"github.com/qolae/readers-dashboard-api/internal/ssot"
	appErrors "github.com/qolae/readers-dashboard-api/pkg/errors"
)

type dashboardAssignmentStore interface {
	CountOpenByPin(ctx context.Context, pin string) (int, error)
	CountAwaitingApprovalByPin(ctx context.Context, pin string) (int, error)
	SumUnpaidByPin(ctx context.Context, pin string) (float64, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, key string)
}

type complianceChecker interface {
	Status(ctx context.Context, pin string) (string, error)
}

// DashboardService aggregates a reader's standing into one summary. The
// summary is cached in Redis; callers can tell a cached response by the
// hit flag.
type DashboardService struct {
	readers     counterStore
	assignments dashboardAssignmentStore
	compliance  complianceChecker
	cache       dashboardCache
	metrics     *MetricsService

	ttl    time.Duration
	logger *zap.Logger
}

func NewDashboardService(
	readers counterStore,
	assignments dashboardAssignmentStore,
	compliance complianceChecker,
	cache dashboardCache,
	metrics *MetricsService,
	ttl time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		readers:     readers,
		assignments: assignments,
		compliance:  compliance,
		cache:       cache,
		metrics:     metrics,
		ttl:         ttl,
		logger:      logger,
	}
}

func dashboardCacheKey(pin string) string {
	return "dashboard:summary:" + pin
}

// Summary returns the reader's dashboard aggregate, serving from cache
// when a fresh copy exists.
func (s *DashboardService) Summary(ctx context.Context, pin string) (*dto.DashboardSummary, bool, error) {
	key := dashboardCacheKey(pin)

	var cached dto.DashboardSummary
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return &cached, true, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.String("pin", pin), zap.Error(err))
	}
	s.metrics.RecordCacheOperation(false)

	reader, err := s.readers.FindByPin(ctx, pin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "reader not found")
		}
		return nil, false, err
	}
	open, err := s.assignments.CountOpenByPin(ctx, pin)
	if err != nil {
		return nil, false, err
	}
	awaiting, err := s.assignments.CountAwaitingApprovalByPin(ctx, pin)
	if err != nil {
		return nil, false, err
	}
	unpaid, err := s.assignments.SumUnpaidByPin(ctx, pin)
	if err != nil {
		return nil, false, err
	}

	// Compliance is advisory here; an unreachable HR service must not take
	// the dashboard down with it.
	complianceStatus, err := s.compliance.Status(ctx, pin)
	if err != nil {
		s.logger.Warn("compliance lookup failed", zap.String("pin", pin), zap.Error(err))
		complianceStatus = ssot.CompliancePending
	}

	summary := &dto.DashboardSummary{
		Pin:                  pin,
		OpenAssignments:      open,
		AssignmentsCompleted: reader.AssignmentsCompleted,
		PendingCorrections:   awaiting,
		AvgTurnaroundHours:   reader.AvgTurnaroundHours,
		TotalEarnings:        reader.TotalEarnings,
		UnpaidAmount:         unpaid,
		NdaSigned:            reader.NdaSigned,
		Compliance:           complianceStatus,
	}

	if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("pin", pin), zap.Error(err))
	}

	return summary, false, nil
}

// InvalidateSummary drops the cached aggregate after a mutation.
func (s *DashboardService) InvalidateSummary(ctx context.Context, pin string) {
	s.cache.Invalidate(ctx, dashboardCacheKey(pin))
}
