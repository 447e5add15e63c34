package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/aims-campus/aims-api/internal/models"
)

const pqUniqueViolation = "23505"

// ErrDuplicate is returned by inserts that hit a unique constraint. For
// enrollments the constraint is the (student, course) pair, so two racing
// creates resolve to exactly one success.
var ErrDuplicate = errors.New("duplicate row")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

const enrollmentDetailColumns = `e.id, e.student_id, e.course_id, e.instructor_status, e.advisor_status,
        e.instructor_comment, e.advisor_comment, e.enrolled_date, e.created_at,
        u.full_name AS student_name, u.code AS student_code, u.department AS student_department,
        c.code AS course_code, c.title AS course_title, c.credits, c.session`

const enrollmentDetailJoins = `FROM enrollments e
        JOIN users u ON u.id = e.student_id
        JOIN courses c ON c.id = e.course_id`

// EnrollmentRepository handles persistence of enrollment records.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts a pending/pending enrollment. Uniqueness of the
// (student, course) pair is enforced atomically by the insert itself.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.InstructorStatus == "" {
		enrollment.InstructorStatus = models.DecisionPending
	}
	if enrollment.AdvisorStatus == "" {
		enrollment.AdvisorStatus = models.DecisionPending
	}
	now := time.Now().UTC()
	if enrollment.EnrolledDate.IsZero() {
		enrollment.EnrolledDate = now
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}

	const query = `INSERT INTO enrollments (id, student_id, course_id, instructor_status, advisor_status, enrolled_date, created_at)
        VALUES (:id, :student_id, :course_id, :instructor_status, :advisor_status, :enrolled_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// FindByID returns a bare enrollment row.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, instructor_status, advisor_status,
        instructor_comment, advisor_comment, enrolled_date, created_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment joined with student and course info.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.id = $1", enrollmentDetailColumns, enrollmentDetailJoins)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteOwned removes the enrollment when it belongs to the student and
// reports whether a row was deleted.
func (r *EnrollmentRepository) DeleteOwned(ctx context.Context, id, studentID string) (bool, error) {
	const query = `DELETE FROM enrollments WHERE id = $1 AND student_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, studentID)
	if err != nil {
		return false, fmt.Errorf("delete enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete enrollment rows: %w", err)
	}
	return affected > 0, nil
}

// SetInstructorDecision moves the instructor track out of pending. The
// WHERE clause keeps the pending precondition atomic with the update; a zero
// row count means the track was already decided.
func (r *EnrollmentRepository) SetInstructorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (bool, error) {
	const query = `UPDATE enrollments SET instructor_status = $2, instructor_comment = $3
        WHERE id = $1 AND instructor_status = $4`
	res, err := r.db.ExecContext(ctx, query, id, decision, comment, models.DecisionPending)
	if err != nil {
		return false, fmt.Errorf("set instructor decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set instructor decision rows: %w", err)
	}
	return affected > 0, nil
}

// SetAdvisorDecision moves the advisor track out of pending. The WHERE
// clause enforces both the pending precondition and the instructor-approved
// ordering guard atomically with the update.
func (r *EnrollmentRepository) SetAdvisorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (bool, error) {
	const query = `UPDATE enrollments SET advisor_status = $2, advisor_comment = $3
        WHERE id = $1 AND advisor_status = $4 AND instructor_status = $5`
	res, err := r.db.ExecContext(ctx, query, id, decision, comment, models.DecisionPending, models.DecisionApproved)
	if err != nil {
		return false, fmt.Errorf("set advisor decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set advisor decision rows: %w", err)
	}
	return affected > 0, nil
}

// BulkSetInstructorDecision applies one instructor decision to every pending
// enrollment in the id set that belongs to a course owned by the instructor.
// Rows outside the instructor's courses are skipped, not errors. Ownership
// filtering happens inside the single UPDATE so no out-of-scope row can be
// touched. Returns the number of rows actually updated.
func (r *EnrollmentRepository) BulkSetInstructorDecision(ctx context.Context, ids []string, decision models.DecisionStatus, instructorID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	const query = `UPDATE enrollments e SET instructor_status = $1
        FROM courses c
        WHERE e.course_id = c.id
          AND c.instructor_id = $2
          AND e.id = ANY($3)
          AND e.instructor_status = $4`
	res, err := r.db.ExecContext(ctx, query, decision, instructorID, pq.Array(ids), models.DecisionPending)
	if err != nil {
		return 0, fmt.Errorf("bulk instructor decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bulk instructor decision rows: %w", err)
	}
	return int(affected), nil
}

// ListByStudent returns the student's enrollments, newest first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.student_id = $1 ORDER BY e.created_at DESC",
		enrollmentDetailColumns, enrollmentDetailJoins)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student enrollments: %w", err)
	}
	return enrollments, nil
}

// ListByCourse returns all enrollments for one course, newest first.
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE e.course_id = $1 ORDER BY e.created_at DESC",
		enrollmentDetailColumns, enrollmentDetailJoins)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// ListForInstructor returns enrollments across the instructor's courses,
// optionally narrowed to one course or to pending instructor decisions.
func (r *EnrollmentRepository) ListForInstructor(ctx context.Context, instructorID string, filter models.InstructorQueueFilter) ([]models.EnrollmentDetail, error) {
	conditions := []string{"c.instructor_id = $1"}
	args := []interface{}{instructorID}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.PendingOnly {
		conditions = append(conditions, fmt.Sprintf("e.instructor_status = $%d", len(args)+1))
		args = append(args, models.DecisionPending)
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY e.created_at DESC",
		enrollmentDetailColumns, enrollmentDetailJoins, strings.Join(conditions, " AND "))
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list instructor enrollments: %w", err)
	}
	return enrollments, nil
}

// ListForAdvisor returns instructor-approved enrollments of students
// assigned to the advisor. Rows never reach an advisor before the
// instructor approves them.
func (r *EnrollmentRepository) ListForAdvisor(ctx context.Context, advisorID string, filter models.AdvisorQueueFilter) ([]models.EnrollmentDetail, error) {
	joins := enrollmentDetailJoins + `
        JOIN advisor_students a ON a.student_id = e.student_id`
	conditions := []string{"a.advisor_id = $1", "e.instructor_status = $2"}
	args := []interface{}{advisorID, models.DecisionApproved}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.advisor_status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(u.code) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY e.created_at DESC",
		enrollmentDetailColumns, joins, strings.Join(conditions, " AND "))
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list advisor enrollments: %w", err)
	}
	return enrollments, nil
}

// ListAll returns enrollments across all students for the admin view,
// filtered on the derived final status.
func (r *EnrollmentRepository) ListAll(ctx context.Context, filter models.AdminEnrollmentFilter) ([]models.EnrollmentDetail, error) {
	finalExpr := `CASE
        WHEN e.instructor_status = 'rejected' OR e.advisor_status = 'rejected' THEN 'rejected'
        WHEN e.instructor_status = 'approved' AND e.advisor_status = 'approved' THEN 'approved'
        ELSE 'pending' END`

	var conditions []string
	var args []interface{}

	if filter.FinalStatus != "" {
		conditions = append(conditions, fmt.Sprintf("(%s) = $%d", finalExpr, len(args)+1))
		args = append(args, filter.FinalStatus)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR LOWER(u.code) LIKE $%d OR LOWER(c.code) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf("SELECT %s %s%s ORDER BY e.created_at DESC LIMIT %d",
		enrollmentDetailColumns, enrollmentDetailJoins, clause, limit)
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list all enrollments: %w", err)
	}
	return enrollments, nil
}
