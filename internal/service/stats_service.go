package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/internal/models"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
	"github.com/aims-campus/aims-api/pkg/export"
)

const statsCacheKey = "admin:stats"

type statsRepository interface {
	Overview(ctx context.Context) (*models.AdminStats, error)
}

type enrollmentLister interface {
	ListAll(ctx context.Context, filter models.AdminEnrollmentFilter) ([]models.EnrollmentDetail, error)
}

// StatsService serves the admin dashboard aggregates and report exports.
type StatsService struct {
	stats       statsRepository
	enrollments enrollmentLister
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewStatsService constructs a StatsService instance.
func NewStatsService(stats statsRepository, enrollments enrollmentLister, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{stats: stats, enrollments: enrollments, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Overview returns the aggregate counts, served from cache when enabled.
func (s *StatsService) Overview(ctx context.Context) (*models.AdminStats, error) {
	var cached models.AdminStats
	if hit, err := s.cache.Get(ctx, statsCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	stats, err := s.stats.Overview(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute stats")
	}

	if err := s.cache.Set(ctx, statsCacheKey, stats, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache admin stats", zap.Error(err))
	}
	return stats, nil
}

// InvalidateOverview drops the cached aggregates. Called after writes that
// change the counts.
func (s *StatsService) InvalidateOverview(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, statsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

// ExportEnrollments renders the global enrollment listing as csv or pdf.
func (s *StatsService) ExportEnrollments(ctx context.Context, filter models.AdminEnrollmentFilter, format string) ([]byte, string, error) {
	enrollments, err := s.enrollments.ListAll(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	report := export.Report{
		Title:   "Enrollment Report",
		Headers: []string{"Student Code", "Student Name", "Course Code", "Course Title", "Credits", "Instructor Status", "Advisor Status", "Final Status", "Enrolled"},
		Rows:    make([][]string, 0, len(enrollments)),
	}
	for _, e := range enrollments {
		e = e.WithFinal()
		report.Rows = append(report.Rows, []string{
			e.StudentCode,
			e.StudentName,
			e.CourseCode,
			e.CourseTitle,
			strconv.Itoa(e.Credits),
			string(e.InstructorStatus),
			string(e.AdvisorStatus),
			string(e.Final),
			e.EnrolledDate.Format("2006-01-02"),
		})
	}

	switch format {
	case "csv":
		data, err := export.CSV(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := export.PDF(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
