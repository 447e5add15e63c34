package models

// AdminStats is the aggregate overview shown on the admin dashboard.
// Enrollment buckets are counted over the derived final status.
type AdminStats struct {
	TotalUsers       int `db:"total_users" json:"total_users"`
	TotalCourses     int `db:"total_courses" json:"total_courses"`
	TotalEnrollments int `db:"total_enrollments" json:"total_enrollments"`
	Pending          int `db:"pending" json:"pending"`
	Approved         int `db:"approved" json:"approved"`
	Rejected         int `db:"rejected" json:"rejected"`
	Students         int `db:"students" json:"students"`
	Instructors      int `db:"instructors" json:"instructors"`
	Advisors         int `db:"advisors" json:"advisors"`
	Admins           int `db:"admins" json:"admins"`
}
