package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/internal/models"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type mockAdvisorReader struct {
	assignments map[string]string // student id -> advisor id
}

func (m *mockAdvisorReader) Exists(ctx context.Context, studentID, advisorID string) (bool, error) {
	return m.assignments[studentID] == advisorID, nil
}

func (m *mockAdvisorReader) ListStudents(ctx context.Context, advisorID, search string) ([]models.AdvisedStudent, error) {
	var list []models.AdvisedStudent
	for studentID, aid := range m.assignments {
		if aid == advisorID {
			list = append(list, models.AdvisedStudent{StudentID: studentID})
		}
	}
	return list, nil
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) Create(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

type gatewayFixture struct {
	gateway *ApprovalGateway
	repo    *mockEnrollmentRepo
	audit   *mockAuditWriter
}

func newGateway(repo *mockEnrollmentRepo, assignments map[string]string) gatewayFixture {
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", InstructorID: "inst-1"},
		"crs-2": {ID: "crs-2", InstructorID: "inst-2"},
	}}
	audit := &mockAuditWriter{}
	ledger := NewEnrollmentService(repo, courses, zap.NewNop())
	gateway := NewApprovalGateway(ledger, courses, &mockAdvisorReader{assignments: assignments}, audit, nil, zap.NewNop())
	return gatewayFixture{gateway: gateway, repo: repo, audit: audit}
}

var (
	student    = models.Actor{UserID: "stu-1", Role: models.RoleStudent}
	instructor = models.Actor{UserID: "inst-1", Role: models.RoleInstructor}
	advisor    = models.Actor{UserID: "adv-1", Role: models.RoleAdvisor}
)

func TestGatewayEnrollRequiresStudentRole(t *testing.T) {
	fix := newGateway(&mockEnrollmentRepo{}, nil)

	_, err := fix.gateway.Enroll(context.Background(), instructor, "crs-1")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrForbidden.Code)
}

func TestGatewayEnrollRejectsUnknownRole(t *testing.T) {
	fix := newGateway(&mockEnrollmentRepo{}, nil)

	_, err := fix.gateway.Enroll(context.Background(), models.Actor{UserID: "x", Role: "superuser"}, "crs-1")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrForbidden.Code)
}

func TestGatewayInstructorDecideOwnershipHidesRow(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", CourseID: "crs-2", InstructorStatus: models.DecisionPending},
	}}
	fix := newGateway(repo, nil)

	// crs-2 belongs to inst-2; for inst-1 the row must look missing, not
	// forbidden.
	_, err := fix.gateway.DecideAsInstructor(context.Background(), instructor, "enr-1", models.DecisionApproved, nil)
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestGatewayAdvisorDecideUnassignedStudent(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", InstructorStatus: models.DecisionApproved, AdvisorStatus: models.DecisionPending},
	}}
	fix := newGateway(repo, map[string]string{"stu-1": "adv-2"})

	_, err := fix.gateway.DecideAsAdvisor(context.Background(), advisor, "enr-1", models.DecisionApproved, nil)
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestGatewayFullLifecycle(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	fix := newGateway(repo, map[string]string{"stu-1": "adv-1"})
	ctx := context.Background()

	detail, err := fix.gateway.Enroll(ctx, student, "crs-1")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionPending, detail.Final)

	detail, err = fix.gateway.DecideAsInstructor(ctx, instructor, detail.ID, models.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, detail.InstructorStatus)
	assert.Equal(t, models.DecisionPending, detail.Final)

	detail, err = fix.gateway.DecideAsAdvisor(ctx, advisor, detail.ID, models.DecisionApproved, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, detail.Final)

	// One audit entry per state change.
	require.Len(t, fix.audit.entries, 3)
	assert.Equal(t, models.AuditActionEnroll, fix.audit.entries[0].Action)
	assert.Equal(t, models.AuditActionInstructorDecide, fix.audit.entries[1].Action)
	assert.Equal(t, models.AuditActionAdvisorDecide, fix.audit.entries[2].Action)
}

func TestGatewayAdvisorBeforeInstructor(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", InstructorStatus: models.DecisionPending, AdvisorStatus: models.DecisionPending},
	}}
	fix := newGateway(repo, map[string]string{"stu-1": "adv-1"})

	_, err := fix.gateway.DecideAsAdvisor(context.Background(), advisor, "enr-1", models.DecisionApproved, nil)
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrInvalidTransition.Code)
}

func TestGatewayBulkDecideScopesToOwnCourses(t *testing.T) {
	repo := &mockEnrollmentRepo{bulkCount: 1}
	fix := newGateway(repo, nil)

	count, err := fix.gateway.BulkDecideAsInstructor(context.Background(), instructor, []string{"enr-1", "enr-2"}, models.DecisionRejected)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"enr-1", "enr-2"}, repo.bulkIDs)
}

func TestGatewayDropRequiresOwnership(t *testing.T) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-2", CourseID: "crs-1"},
	}}
	fix := newGateway(repo, nil)

	err := fix.gateway.Drop(context.Background(), student, "enr-1")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
	assert.Empty(t, fix.audit.entries)
}

func TestGatewayAdvisorQueueEmptyForUnassigned(t *testing.T) {
	fix := newGateway(&mockEnrollmentRepo{}, map[string]string{})

	students, err := fix.gateway.AdvisedStudents(context.Background(), advisor, "")
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestGatewayAdminListRequiresAdmin(t *testing.T) {
	fix := newGateway(&mockEnrollmentRepo{}, nil)

	_, err := fix.gateway.AdminListEnrollments(context.Background(), advisor, models.AdminEnrollmentFilter{})
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrForbidden.Code)

	admin := models.Actor{UserID: "adm-1", Role: models.RoleAdmin}
	_, err = fix.gateway.AdminListEnrollments(context.Background(), admin, models.AdminEnrollmentFilter{})
	require.NoError(t, err)
}
