package models

import "time"

// UserRole is the closed set of roles known to the authorization layer.
// Every dispatch over roles must switch exhaustively over these values so a
// new role can never silently pass an authorization check.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleInstructor UserRole = "instructor"
	RoleAdvisor    UserRole = "advisor"
	RoleAdmin      UserRole = "admin"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdvisor, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table. Code is the
// institution-facing identifier (roll number or employee id); ID is the
// internal key. Role is immutable after creation.
type User struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	Department   *string   `db:"department" json:"department,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Actor identifies the authenticated caller for a single request. It is
// passed explicitly into every gateway operation, never read from ambient
// state.
type Actor struct {
	UserID string
	Role   UserRole
}

// CreateUserRequest is the admin payload for registering a user. AdvisorID
// is honored for students only and assigns the advisor in the same call.
type CreateUserRequest struct {
	Code       string   `json:"code" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=8"`
	FullName   string   `json:"full_name" validate:"required"`
	Role       UserRole `json:"role" validate:"required"`
	Department *string  `json:"department,omitempty"`
	AdvisorID  string   `json:"advisor_id,omitempty"`
}

// AssignAdvisorRequest binds a student to an advisor.
type AssignAdvisorRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	AdvisorID string `json:"advisor_id" validate:"required"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role   UserRole
	Search string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
