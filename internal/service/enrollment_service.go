package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/repository"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	DeleteOwned(ctx context.Context, id, studentID string) (bool, error)
	SetInstructorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (bool, error)
	SetAdvisorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (bool, error)
	BulkSetInstructorDecision(ctx context.Context, ids []string, decision models.DecisionStatus, instructorID string) (int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
	ListForInstructor(ctx context.Context, instructorID string, filter models.InstructorQueueFilter) ([]models.EnrollmentDetail, error)
	ListForAdvisor(ctx context.Context, advisorID string, filter models.AdvisorQueueFilter) ([]models.EnrollmentDetail, error)
	ListAll(ctx context.Context, filter models.AdminEnrollmentFilter) ([]models.EnrollmentDetail, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// EnrollmentService is the enrollment ledger: it owns the two-track approval
// state machine and its storage invariants. Authorization and scoping happen
// one layer up in the ApprovalGateway; the ledger assumes its inputs already
// name the right student or instructor.
type EnrollmentService struct {
	repo    enrollmentRepository
	courses courseReader
	logger  *zap.Logger
}

// NewEnrollmentService constructs the ledger.
func NewEnrollmentService(repo enrollmentRepository, courses courseReader, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, courses: courses, logger: logger}
}

// Create opens a new enrollment request with both tracks pending. The
// (student, course) uniqueness check rides on the insert itself, so two
// concurrent creates for the same pair yield one success and one
// DUPLICATE_ENROLLMENT.
func (s *EnrollmentService) Create(ctx context.Context, studentID, courseID string) (*models.EnrollmentDetail, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment := &models.Enrollment{StudentID: studentID, CourseID: courseID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrDuplicateEnrollment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	result := detail.WithFinal()
	return &result, nil
}

// Get returns the bare enrollment row.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Drop removes the student's enrollment entirely. The current product keeps
// the original retract-freely behaviour: any final status may be dropped.
func (s *EnrollmentService) Drop(ctx context.Context, id, studentID string) error {
	deleted, err := s.repo.DeleteOwned(ctx, id, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return nil
}

// InstructorDecision records the instructor's approve/reject. The track is
// terminal once decided.
func (s *EnrollmentService) InstructorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (*models.EnrollmentDetail, error) {
	if !decision.Decidable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}

	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.InstructorStatus != models.DecisionPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "instructor decision already recorded")
	}

	updated, err := s.repo.SetInstructorDecision(ctx, id, decision, comment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record instructor decision")
	}
	if !updated {
		// Lost the race against another decision on the same row.
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "instructor decision already recorded")
	}
	return s.detail(ctx, id)
}

// AdvisorDecision records the advisor's approve/reject. It refuses to act
// before the instructor track is approved, and the guard is repeated inside
// the UPDATE so the ordering holds even under concurrent decisions.
func (s *EnrollmentService) AdvisorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (*models.EnrollmentDetail, error) {
	if !decision.Decidable() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}

	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if enrollment.InstructorStatus != models.DecisionApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "advisor decision requires instructor approval first")
	}
	if enrollment.AdvisorStatus != models.DecisionPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "advisor decision already recorded")
	}

	updated, err := s.repo.SetAdvisorDecision(ctx, id, decision, comment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record advisor decision")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "advisor decision already recorded")
	}
	return s.detail(ctx, id)
}

// BulkInstructorDecision applies one decision across many enrollments,
// touching only pending rows in courses owned by the instructor. Out-of-scope
// ids are skipped silently; the return value is the count actually updated.
func (s *EnrollmentService) BulkInstructorDecision(ctx context.Context, ids []string, decision models.DecisionStatus, instructorID string) (int, error) {
	if !decision.Decidable() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}
	count, err := s.repo.BulkSetInstructorDecision(ctx, ids, decision, instructorID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply bulk decision")
	}
	return count, nil
}

// ListForStudent returns the student's enrollments, newest first.
func (s *EnrollmentService) ListForStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return withFinal(enrollments), nil
}

// ListForCourse returns every enrollment in one course.
func (s *EnrollmentService) ListForCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return withFinal(enrollments), nil
}

// ListForInstructor returns the instructor's review queue.
func (s *EnrollmentService) ListForInstructor(ctx context.Context, instructorID string, filter models.InstructorQueueFilter) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListForInstructor(ctx, instructorID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return withFinal(enrollments), nil
}

// ListForAdvisor returns the advisor's review queue: instructor-approved
// rows of assigned students only.
func (s *EnrollmentService) ListForAdvisor(ctx context.Context, advisorID string, filter models.AdvisorQueueFilter) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListForAdvisor(ctx, advisorID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return withFinal(enrollments), nil
}

// ListAll returns the admin's global enrollment listing.
func (s *EnrollmentService) ListAll(ctx context.Context, filter models.AdminEnrollmentFilter) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return withFinal(enrollments), nil
}

func (s *EnrollmentService) detail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	result := detail.WithFinal()
	return &result, nil
}

func withFinal(enrollments []models.EnrollmentDetail) []models.EnrollmentDetail {
	result := make([]models.EnrollmentDetail, len(enrollments))
	for i, e := range enrollments {
		result[i] = e.WithFinal()
	}
	return result
}
