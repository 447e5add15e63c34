package models

import "time"

// Course represents an offered course owned by one instructor.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Title        string    `db:"title" json:"title"`
	Department   string    `db:"department" json:"department"`
	InstructorID string    `db:"instructor_id" json:"instructor_id"`
	Credits      int       `db:"credits" json:"credits"`
	Session      string    `db:"session" json:"session"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CourseDetail enriches Course with the instructor's display name.
type CourseDetail struct {
	Course
	InstructorName string `db:"instructor_name" json:"instructor_name"`
}

// CourseWithEnrollmentCount is the admin course listing projection.
type CourseWithEnrollmentCount struct {
	Course
	EnrollmentCount int `db:"enrollment_count" json:"enrollment_count"`
}

// CreateCourseRequest is the instructor payload for adding a course. The
// owner is the authenticated caller.
type CreateCourseRequest struct {
	Code       string `json:"code" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Department string `json:"department" validate:"required"`
	Credits    int    `json:"credits" validate:"required,min=1,max=10"`
	Session    string `json:"session" validate:"required"`
}

// CourseFilter captures catalogue search criteria.
type CourseFilter struct {
	Department string
	Code       string
	Title      string
}
