package models

import "time"

// Audit actions recorded by the approval gateway. Decision history is kept
// here because dropping an enrollment hard-deletes the row.
const (
	AuditActionLogin             = "auth.login"
	AuditActionEnroll            = "enrollment.create"
	AuditActionDrop              = "enrollment.drop"
	AuditActionInstructorDecide  = "enrollment.instructor_decision"
	AuditActionAdvisorDecide     = "enrollment.advisor_decision"
	AuditActionBulkInstructorDec = "enrollment.instructor_bulk_decision"
)

// AuditLog is one recorded action against a resource.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
