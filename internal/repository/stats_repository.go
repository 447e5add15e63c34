package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aims-campus/aims-api/internal/models"
)

// StatsRepository computes the admin overview aggregates.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository constructs the repository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Overview returns the aggregate counts in one round trip. Enrollment
// buckets are counted over the derived final status, so the numbers always
// agree with what each student sees.
func (r *StatsRepository) Overview(ctx context.Context) (*models.AdminStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM users) AS total_users,
        (SELECT COUNT(*) FROM courses) AS total_courses,
        (SELECT COUNT(*) FROM enrollments) AS total_enrollments,
        (SELECT COUNT(*) FROM enrollments
            WHERE instructor_status <> 'rejected' AND advisor_status <> 'rejected'
              AND NOT (instructor_status = 'approved' AND advisor_status = 'approved')) AS pending,
        (SELECT COUNT(*) FROM enrollments
            WHERE instructor_status = 'approved' AND advisor_status = 'approved') AS approved,
        (SELECT COUNT(*) FROM enrollments
            WHERE instructor_status = 'rejected' OR advisor_status = 'rejected') AS rejected,
        (SELECT COUNT(*) FROM users WHERE role = 'student') AS students,
        (SELECT COUNT(*) FROM users WHERE role = 'instructor') AS instructors,
        (SELECT COUNT(*) FROM users WHERE role = 'advisor') AS advisors,
        (SELECT COUNT(*) FROM users WHERE role = 'admin') AS admins`
	var stats models.AdminStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("admin stats overview: %w", err)
	}
	return &stats, nil
}
