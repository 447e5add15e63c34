package models

import "time"

// AdvisorAssignment links a student to the advisor who signs off on their
// enrollments. Storage allows multiple rows per student (unique on the
// pair); the application keeps one active advisor per student.
type AdvisorAssignment struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	AdvisorID string    `db:"advisor_id" json:"advisor_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AdvisedStudent is the advisor's roster projection.
type AdvisedStudent struct {
	StudentID  string  `db:"student_id" json:"student_id"`
	Code       string  `db:"code" json:"code"`
	FullName   string  `db:"full_name" json:"full_name"`
	Email      string  `db:"email" json:"email"`
	Department *string `db:"department" json:"department,omitempty"`
}
