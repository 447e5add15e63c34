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

// AdvisorRepository persists the advisor-to-student assignment relation.
type AdvisorRepository struct {
	db *sqlx.DB
}

// NewAdvisorRepository constructs the repository.
func NewAdvisorRepository(db *sqlx.DB) *AdvisorRepository {
	return &AdvisorRepository{db: db}
}

// Exists reports whether the advisor is assigned to the student.
func (r *AdvisorRepository) Exists(ctx context.Context, studentID, advisorID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM advisor_students WHERE student_id = $1 AND advisor_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, advisorID); err != nil {
		return false, fmt.Errorf("check advisor assignment: %w", err)
	}
	return count > 0, nil
}

// CountForStudent returns how many advisors the student currently has.
// The application keeps this at one; storage allows more.
func (r *AdvisorRepository) CountForStudent(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM advisor_students WHERE student_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count advisor assignments: %w", err)
	}
	return count, nil
}

// Create inserts a new assignment edge.
func (r *AdvisorRepository) Create(ctx context.Context, assignment *models.AdvisorAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO advisor_students (id, student_id, advisor_id, created_at)
        VALUES (:id, :student_id, :advisor_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create advisor assignment: %w", err)
	}
	return nil
}

// ListStudents returns the advisor's roster, optionally filtered by a
// case-insensitive search over student name or code. Ordered by name.
func (r *AdvisorRepository) ListStudents(ctx context.Context, advisorID, search string) ([]models.AdvisedStudent, error) {
	conditions := []string{"a.advisor_id = $1"}
	args := []interface{}{advisorID}

	if search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(s.code) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	query := fmt.Sprintf(`SELECT s.id AS student_id, s.code, s.full_name, s.email, s.department
        FROM advisor_students a
        JOIN users s ON s.id = a.student_id
        WHERE %s ORDER BY s.full_name`, strings.Join(conditions, " AND "))
	var students []models.AdvisedStudent
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list advised students: %w", err)
	}
	return students, nil
}
