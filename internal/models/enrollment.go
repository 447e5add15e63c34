package models

import "time"

// DecisionStatus is one track of the two-stage approval state machine.
// A track starts at pending and is terminal once approved or rejected.
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "pending"
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
)

// Decidable reports whether the status is a valid decision input
// (a caller can decide approved or rejected, never pending).
func (s DecisionStatus) Decidable() bool {
	return s == DecisionApproved || s == DecisionRejected
}

// Enrollment is one student's request to join one course. The
// (student, course) pair is unique. Instructor and advisor decide their
// tracks independently; the advisor track may only move once the instructor
// track is approved.
type Enrollment struct {
	ID                string         `db:"id" json:"id"`
	StudentID         string         `db:"student_id" json:"student_id"`
	CourseID          string         `db:"course_id" json:"course_id"`
	InstructorStatus  DecisionStatus `db:"instructor_status" json:"instructor_status"`
	AdvisorStatus     DecisionStatus `db:"advisor_status" json:"advisor_status"`
	InstructorComment *string        `db:"instructor_comment" json:"instructor_comment,omitempty"`
	AdvisorComment    *string        `db:"advisor_comment" json:"advisor_comment,omitempty"`
	EnrolledDate      time.Time      `db:"enrolled_date" json:"enrolled_date"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// FinalStatus derives the combined outcome of both tracks. It is never
// stored: rejected wins over everything, approval needs both tracks.
func (e Enrollment) FinalStatus() DecisionStatus {
	if e.InstructorStatus == DecisionRejected || e.AdvisorStatus == DecisionRejected {
		return DecisionRejected
	}
	if e.InstructorStatus == DecisionApproved && e.AdvisorStatus == DecisionApproved {
		return DecisionApproved
	}
	return DecisionPending
}

// EnrollmentDetail enriches Enrollment with student and course context for
// list projections.
type EnrollmentDetail struct {
	Enrollment
	StudentName       string         `db:"student_name" json:"student_name"`
	StudentCode       string         `db:"student_code" json:"student_code"`
	StudentDepartment *string        `db:"student_department" json:"student_department,omitempty"`
	CourseCode        string         `db:"course_code" json:"course_code"`
	CourseTitle       string         `db:"course_title" json:"course_title"`
	Credits           int            `db:"credits" json:"credits"`
	Session           string         `db:"session" json:"session"`
	Final             DecisionStatus `db:"-" json:"final_status"`
}

// WithFinal fills the derived final status for serialization.
func (d EnrollmentDetail) WithFinal() EnrollmentDetail {
	d.Final = d.FinalStatus()
	return d
}

// CreateEnrollmentRequest is the student payload for requesting a seat.
type CreateEnrollmentRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// DecisionRequest carries one reviewer decision on one enrollment.
type DecisionRequest struct {
	Decision DecisionStatus `json:"decision" validate:"required,oneof=approved rejected"`
	Comment  *string        `json:"comment,omitempty"`
}

// BulkDecisionRequest carries one decision over many enrollments.
type BulkDecisionRequest struct {
	EnrollmentIDs []string       `json:"enrollment_ids" validate:"required,min=1,dive,required"`
	Decision      DecisionStatus `json:"decision" validate:"required,oneof=approved rejected"`
}

// InstructorQueueFilter scopes the instructor's review listing.
type InstructorQueueFilter struct {
	CourseID    string
	PendingOnly bool
}

// AdvisorQueueFilter scopes the advisor's review listing. Search matches
// the student's name or code, case-insensitively.
type AdvisorQueueFilter struct {
	Status DecisionStatus
	Search string
}

// AdminEnrollmentFilter scopes the admin's global enrollment listing.
type AdminEnrollmentFilter struct {
	FinalStatus DecisionStatus
	Search      string
	Limit       int
}
