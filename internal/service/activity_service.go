package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

type activityStore interface {
	Create(ctx context.Context, entry *models.ActivityLogEntry) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLogEntry, int, error)
}

// ActivityService reads the append-only audit log. Writes flow through the
// domain services; this service only adds query access.
type ActivityService struct {
	activity activityStore
	logger   *zap.Logger
}

func NewActivityService(activity activityStore, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{activity: activity, logger: logger}
}

func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLogEntry, *models.Pagination, error) {
	entries, total, err := s.activity.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return entries, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Record appends an entry on behalf of middleware that has no domain
// service of its own.
func (s *ActivityService) Record(ctx context.Context, entry *models.ActivityLogEntry) {
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("activity log write failed", zap.String("type", entry.ActivityType), zap.Error(err))
	}
}
