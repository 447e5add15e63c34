package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/repository"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	duplicate   bool
	bulkCount   int
	bulkIDs     []string
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.duplicate {
		return repository.ErrDuplicate
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enroll"
	}
	enrollment.InstructorStatus = models.DecisionPending
	enrollment.AdvisorStatus = models.DecisionPending
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) DeleteOwned(ctx context.Context, id, studentID string) (bool, error) {
	e, ok := m.enrollments[id]
	if !ok || e.StudentID != studentID {
		return false, nil
	}
	delete(m.enrollments, id)
	return true, nil
}

func (m *mockEnrollmentRepo) SetInstructorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (bool, error) {
	e, ok := m.enrollments[id]
	if !ok || e.InstructorStatus != models.DecisionPending {
		return false, nil
	}
	e.InstructorStatus = decision
	e.InstructorComment = comment
	m.enrollments[id] = e
	return true, nil
}

func (m *mockEnrollmentRepo) SetAdvisorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (bool, error) {
	e, ok := m.enrollments[id]
	if !ok || e.AdvisorStatus != models.DecisionPending || e.InstructorStatus != models.DecisionApproved {
		return false, nil
	}
	e.AdvisorStatus = decision
	e.AdvisorComment = comment
	m.enrollments[id] = e
	return true, nil
}

func (m *mockEnrollmentRepo) BulkSetInstructorDecision(ctx context.Context, ids []string, decision models.DecisionStatus, instructorID string) (int, error) {
	m.bulkIDs = ids
	return m.bulkCount, nil
}

func (m *mockEnrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.StudentID == studentID {
			list = append(list, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.CourseID == courseID {
			list = append(list, models.EnrollmentDetail{Enrollment: e})
		}
	}
	return list, nil
}

func (m *mockEnrollmentRepo) ListForInstructor(ctx context.Context, instructorID string, filter models.InstructorQueueFilter) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) ListForAdvisor(ctx context.Context, advisorID string, filter models.AdvisorQueueFilter) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) ListAll(ctx context.Context, filter models.AdminEnrollmentFilter) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newLedger(repo *mockEnrollmentRepo, courses *mockCourseReader) *EnrollmentService {
	if courses == nil {
		courses = &mockCourseReader{courses: map[string]*models.Course{"crs-1": {ID: "crs-1", InstructorID: "inst-1"}}}
	}
	return NewEnrollmentService(repo, courses, zap.NewNop())
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	appErr := appErrors.FromError(err)
	assert.Equal(t, code, appErr.Code)
}

func TestEnrollmentCreate(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newLedger(repo, nil)

	detail, err := svc.Create(context.Background(), "stu-1", "crs-1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, detail.InstructorStatus)
	assert.Equal(t, models.DecisionPending, detail.AdvisorStatus)
	assert.Equal(t, models.DecisionPending, detail.Final)
}

func TestEnrollmentCreateDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{duplicate: true}
	svc := newLedger(repo, nil)

	_, err := svc.Create(context.Background(), "stu-1", "crs-1")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrDuplicateEnrollment.Code)
}

func TestEnrollmentCreateUnknownCourse(t *testing.T) {
	svc := newLedger(&mockEnrollmentRepo{}, &mockCourseReader{})

	_, err := svc.Create(context.Background(), "stu-1", "missing")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestInstructorDecisionApprove(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", InstructorStatus: models.DecisionPending, AdvisorStatus: models.DecisionPending},
	}}
	svc := newLedger(repo, nil)

	detail, err := svc.InstructorDecision(context.Background(), "enr-1", models.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, detail.InstructorStatus)
	assert.Equal(t, models.DecisionPending, detail.Final)
}

func TestInstructorDecisionTerminal(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", InstructorStatus: models.DecisionApproved, AdvisorStatus: models.DecisionPending},
	}}
	svc := newLedger(repo, nil)

	_, err := svc.InstructorDecision(context.Background(), "enr-1", models.DecisionRejected, nil)
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestInstructorDecisionRejectsPendingInput(t *testing.T) {
	svc := newLedger(&mockEnrollmentRepo{}, nil)

	_, err := svc.InstructorDecision(context.Background(), "enr-1", models.DecisionPending, nil)
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestAdvisorDecisionBeforeInstructorApproval(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", InstructorStatus: models.DecisionPending, AdvisorStatus: models.DecisionPending},
	}}
	svc := newLedger(repo, nil)

	_, err := svc.AdvisorDecision(context.Background(), "enr-1", models.DecisionApproved, nil)
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestAdvisorDecisionAfterInstructorRejection(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", InstructorStatus: models.DecisionRejected, AdvisorStatus: models.DecisionPending},
	}}
	svc := newLedger(repo, nil)

	_, err := svc.AdvisorDecision(context.Background(), "enr-1", models.DecisionApproved, nil)
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestAdvisorDecisionCompletesApproval(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", InstructorStatus: models.DecisionApproved, AdvisorStatus: models.DecisionPending},
	}}
	svc := newLedger(repo, nil)

	detail, err := svc.AdvisorDecision(context.Background(), "enr-1", models.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, detail.Final)
}

func TestAdvisorRejectionFinalizesRejected(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", InstructorStatus: models.DecisionApproved, AdvisorStatus: models.DecisionPending},
	}}
	svc := newLedger(repo, nil)

	comment := "over credit limit"
	detail, err := svc.AdvisorDecision(context.Background(), "enr-1", models.DecisionRejected, &comment)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRejected, detail.Final)
	require.NotNil(t, detail.AdvisorComment)
	assert.Equal(t, comment, *detail.AdvisorComment)
}

func TestDropOwnership(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1"},
	}}
	svc := newLedger(repo, nil)

	err := svc.Drop(context.Background(), "enr-1", "stu-2")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrNotFound.Code)

	require.NoError(t, svc.Drop(context.Background(), "enr-1", "stu-1"))
	assert.Empty(t, repo.enrollments)
}

func TestBulkInstructorDecisionReturnsAffectedCount(t *testing.T) {
	repo := &mockEnrollmentRepo{bulkCount: 2}
	svc := newLedger(repo, nil)

	count, err := svc.BulkInstructorDecision(context.Background(), []string{"a", "b", "c"}, models.DecisionApproved, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"a", "b", "c"}, repo.bulkIDs)
}

func TestFinalStatusDerivation(t *testing.T) {
	cases := []struct {
		instructor models.DecisionStatus
		advisor    models.DecisionStatus
		want       models.DecisionStatus
	}{
		{models.DecisionPending, models.DecisionPending, models.DecisionPending},
		{models.DecisionApproved, models.DecisionPending, models.DecisionPending},
		{models.DecisionApproved, models.DecisionApproved, models.DecisionApproved},
		{models.DecisionRejected, models.DecisionPending, models.DecisionRejected},
		{models.DecisionApproved, models.DecisionRejected, models.DecisionRejected},
	}
	for _, tc := range cases {
		e := models.Enrollment{InstructorStatus: tc.instructor, AdvisorStatus: tc.advisor}
		assert.Equal(t, tc.want, e.FinalStatus(), "instructor=%s advisor=%s", tc.instructor, tc.advisor)
	}
}
