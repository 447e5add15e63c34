package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/internal/models"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type enrollmentLedger interface {
	Create(ctx context.Context, studentID, courseID string) (*models.EnrollmentDetail, error)
	Get(ctx context.Context, id string) (*models.Enrollment, error)
	Drop(ctx context.Context, id, studentID string) error
	InstructorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (*models.EnrollmentDetail, error)
	AdvisorDecision(ctx context.Context, id string, decision models.DecisionStatus, comment *string) (*models.EnrollmentDetail, error)
	BulkInstructorDecision(ctx context.Context, ids []string, decision models.DecisionStatus, instructorID string) (int, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
	ListForCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
	ListForInstructor(ctx context.Context, instructorID string, filter models.InstructorQueueFilter) ([]models.EnrollmentDetail, error)
	ListForAdvisor(ctx context.Context, advisorID string, filter models.AdvisorQueueFilter) ([]models.EnrollmentDetail, error)
	ListAll(ctx context.Context, filter models.AdminEnrollmentFilter) ([]models.EnrollmentDetail, error)
}

type advisorAssignmentReader interface {
	Exists(ctx context.Context, studentID, advisorID string) (bool, error)
	ListStudents(ctx context.Context, advisorID, search string) ([]models.AdvisedStudent, error)
}

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// ApprovalGateway is the single authorization choke point in front of the
// enrollment ledger. Every caller identifies itself with an explicit Actor;
// there is no ambient identity. The gateway distinguishes two refusals:
// the wrong role gets FORBIDDEN, while an actor of the right role asking
// about a row outside its scope gets NOT_FOUND, so the response does not
// leak whether the row exists.
type ApprovalGateway struct {
	ledger   enrollmentLedger
	courses  courseReader
	advisors advisorAssignmentReader
	audit    auditWriter
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewApprovalGateway constructs the gateway.
func NewApprovalGateway(ledger enrollmentLedger, courses courseReader, advisors advisorAssignmentReader, audit auditWriter, metrics *MetricsService, logger *zap.Logger) *ApprovalGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalGateway{ledger: ledger, courses: courses, advisors: advisors, audit: audit, metrics: metrics, logger: logger}
}

func requireRole(actor models.Actor, role models.UserRole) error {
	switch actor.Role {
	case models.RoleStudent, models.RoleInstructor, models.RoleAdvisor, models.RoleAdmin:
		if actor.Role != role {
			return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("requires %s role", role))
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "unrecognized role")
	}
}

// Enroll creates an enrollment request on behalf of the acting student.
func (g *ApprovalGateway) Enroll(ctx context.Context, actor models.Actor, courseID string) (*models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	detail, err := g.ledger.Create(ctx, actor.UserID, courseID)
	if err != nil {
		return nil, err
	}
	g.record(ctx, actor, models.AuditActionEnroll, detail.ID, map[string]interface{}{"course_id": courseID})
	return detail, nil
}

// Drop deletes the acting student's own enrollment. A row owned by someone
// else looks identical to a missing row.
func (g *ApprovalGateway) Drop(ctx context.Context, actor models.Actor, enrollmentID string) error {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return err
	}
	if err := g.ledger.Drop(ctx, enrollmentID, actor.UserID); err != nil {
		return err
	}
	g.record(ctx, actor, models.AuditActionDrop, enrollmentID, nil)
	return nil
}

// ListOwn returns the acting student's enrollments.
func (g *ApprovalGateway) ListOwn(ctx context.Context, actor models.Actor) ([]models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	return g.ledger.ListForStudent(ctx, actor.UserID)
}

// InstructorQueue returns enrollments in the acting instructor's courses.
func (g *ApprovalGateway) InstructorQueue(ctx context.Context, actor models.Actor, filter models.InstructorQueueFilter) ([]models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleInstructor); err != nil {
		return nil, err
	}
	return g.ledger.ListForInstructor(ctx, actor.UserID, filter)
}

// CourseEnrollments lists one course's enrollments for its owning instructor.
func (g *ApprovalGateway) CourseEnrollments(ctx context.Context, actor models.Actor, courseID string) ([]models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleInstructor); err != nil {
		return nil, err
	}
	if err := g.requireCourseOwner(ctx, actor.UserID, courseID); err != nil {
		return nil, err
	}
	return g.ledger.ListForCourse(ctx, courseID)
}

// DecideAsInstructor records the instructor decision on a single enrollment
// after verifying the enrollment belongs to one of the actor's courses.
func (g *ApprovalGateway) DecideAsInstructor(ctx context.Context, actor models.Actor, enrollmentID string, decision models.DecisionStatus, comment *string) (*models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleInstructor); err != nil {
		return nil, err
	}
	enrollment, err := g.ledger.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if err := g.requireCourseOwner(ctx, actor.UserID, enrollment.CourseID); err != nil {
		return nil, err
	}
	detail, err := g.ledger.InstructorDecision(ctx, enrollmentID, decision, comment)
	if err != nil {
		return nil, err
	}
	g.metrics.RecordDecision("instructor", string(decision))
	g.record(ctx, actor, models.AuditActionInstructorDecide, enrollmentID, map[string]interface{}{"decision": decision})
	return detail, nil
}

// BulkDecideAsInstructor applies one decision to many enrollments. Ownership
// scoping happens inside the ledger's single update, so ids outside the
// actor's courses are simply not counted.
func (g *ApprovalGateway) BulkDecideAsInstructor(ctx context.Context, actor models.Actor, ids []string, decision models.DecisionStatus) (int, error) {
	if err := requireRole(actor, models.RoleInstructor); err != nil {
		return 0, err
	}
	count, err := g.ledger.BulkInstructorDecision(ctx, ids, decision, actor.UserID)
	if err != nil {
		return 0, err
	}
	g.record(ctx, actor, models.AuditActionBulkInstructorDec, "", map[string]interface{}{
		"decision":  decision,
		"requested": len(ids),
		"updated":   count,
	})
	return count, nil
}

// AdvisorQueue returns instructor-approved enrollments of students assigned
// to the acting advisor.
func (g *ApprovalGateway) AdvisorQueue(ctx context.Context, actor models.Actor, filter models.AdvisorQueueFilter) ([]models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleAdvisor); err != nil {
		return nil, err
	}
	return g.ledger.ListForAdvisor(ctx, actor.UserID, filter)
}

// AdvisedStudents returns the acting advisor's roster.
func (g *ApprovalGateway) AdvisedStudents(ctx context.Context, actor models.Actor, search string) ([]models.AdvisedStudent, error) {
	if err := requireRole(actor, models.RoleAdvisor); err != nil {
		return nil, err
	}
	return g.advisors.ListStudents(ctx, actor.UserID, search)
}

// DecideAsAdvisor records the advisor decision after verifying the
// enrollment's student is assigned to the actor.
func (g *ApprovalGateway) DecideAsAdvisor(ctx context.Context, actor models.Actor, enrollmentID string, decision models.DecisionStatus, comment *string) (*models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleAdvisor); err != nil {
		return nil, err
	}
	enrollment, err := g.ledger.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	assigned, err := g.advisors.Exists(ctx, enrollment.StudentID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check advisor assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	detail, err := g.ledger.AdvisorDecision(ctx, enrollmentID, decision, comment)
	if err != nil {
		return nil, err
	}
	g.metrics.RecordDecision("advisor", string(decision))
	g.record(ctx, actor, models.AuditActionAdvisorDecide, enrollmentID, map[string]interface{}{"decision": decision})
	return detail, nil
}

// AdminListEnrollments is the unscoped listing for administrators.
func (g *ApprovalGateway) AdminListEnrollments(ctx context.Context, actor models.Actor, filter models.AdminEnrollmentFilter) ([]models.EnrollmentDetail, error) {
	if err := requireRole(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	return g.ledger.ListAll(ctx, filter)
}

func (g *ApprovalGateway) requireCourseOwner(ctx context.Context, instructorID, courseID string) error {
	course, err := g.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.InstructorID != instructorID {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return nil
}

// record writes an audit entry. Audit failures are logged and swallowed so
// they never fail the operation they describe.
func (g *ApprovalGateway) record(ctx context.Context, actor models.Actor, action, resourceID string, payload map[string]interface{}) {
	if g.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:   &actor.UserID,
		Action:   action,
		Resource: "enrollment",
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			entry.Payload = raw
		}
	}
	if err := g.audit.Create(ctx, entry); err != nil {
		g.logger.Warn("audit write failed",
			zap.String("action", action),
			zap.String("actor_id", actor.UserID),
			zap.Error(err))
	}
}
