package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aims-campus/aims-api/internal/models"
)

const courseColumns = `id, code, title, department, instructor_id, credits, session, created_at`

// CourseRepository provides database access for the course registry.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns the catalogue with the instructor name, filtered by
// department and by partial code/title match. Ordered by code.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("c.department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Code != "" {
		conditions = append(conditions, fmt.Sprintf("c.code ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Code+"%")
	}
	if filter.Title != "" {
		conditions = append(conditions, fmt.Sprintf("c.title ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Title+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`SELECT c.id, c.code, c.title, c.department, c.instructor_id, c.credits, c.session, c.created_at,
        u.full_name AS instructor_name
        FROM courses c
        JOIN users u ON u.id = c.instructor_id%s ORDER BY c.code`, clause)
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Departments returns the distinct department names in the catalogue.
func (r *CourseRepository) Departments(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT department FROM courses ORDER BY department`
	var departments []string
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO courses (id, code, title, department, instructor_id, credits, session, created_at)
        VALUES (:id, :code, :title, :department, :instructor_id, :credits, :session, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ListWithEnrollmentCounts is the admin catalogue projection.
func (r *CourseRepository) ListWithEnrollmentCounts(ctx context.Context) ([]models.CourseWithEnrollmentCount, error) {
	const query = `SELECT c.id, c.code, c.title, c.department, c.instructor_id, c.credits, c.session, c.created_at,
        COUNT(e.id) AS enrollment_count
        FROM courses c
        LEFT JOIN enrollments e ON e.course_id = c.id
        GROUP BY c.id ORDER BY c.code`
	var courses []models.CourseWithEnrollmentCount
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses with counts: %w", err)
	}
	return courses, nil
}
