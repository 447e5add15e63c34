package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the AIMS tables. The UNIQUE constraints on
// enrollments(student_id, course_id) and advisor_students(student_id,
// advisor_id) back the ledger's atomic duplicate checks.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id UUID PRIMARY KEY,
        code VARCHAR(50) UNIQUE NOT NULL,
        email VARCHAR(255) UNIQUE NOT NULL,
        password_hash VARCHAR(255) NOT NULL,
        full_name VARCHAR(255) NOT NULL,
        role VARCHAR(20) NOT NULL CHECK (role IN ('student', 'instructor', 'advisor', 'admin')),
        department VARCHAR(255),
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS login_otps (
        id UUID PRIMARY KEY,
        user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        otp_hash VARCHAR(255) NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        used BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS courses (
        id UUID PRIMARY KEY,
        code VARCHAR(50) UNIQUE NOT NULL,
        title VARCHAR(255) NOT NULL,
        department VARCHAR(255) NOT NULL,
        instructor_id UUID NOT NULL REFERENCES users(id),
        credits INTEGER NOT NULL,
        session VARCHAR(100) NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS enrollments (
        id UUID PRIMARY KEY,
        student_id UUID NOT NULL REFERENCES users(id),
        course_id UUID NOT NULL REFERENCES courses(id),
        instructor_status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (instructor_status IN ('pending', 'approved', 'rejected')),
        advisor_status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (advisor_status IN ('pending', 'approved', 'rejected')),
        instructor_comment TEXT,
        advisor_comment TEXT,
        enrolled_date DATE NOT NULL DEFAULT CURRENT_DATE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (student_id, course_id)
    )`,
	`CREATE TABLE IF NOT EXISTS advisor_students (
        id UUID PRIMARY KEY,
        student_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        advisor_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (student_id, advisor_id)
    )`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
        id UUID PRIMARY KEY,
        user_id UUID REFERENCES users(id),
        action VARCHAR(100) NOT NULL,
        resource VARCHAR(100) NOT NULL,
        resource_id UUID,
        payload JSONB,
        ip_address VARCHAR(64),
        user_agent TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollments_course ON enrollments(course_id)`,
	`CREATE INDEX IF NOT EXISTS idx_advisor_students_advisor ON advisor_students(advisor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_courses_instructor ON courses(instructor_id)`,
}

// EnsureSchema creates all tables and indexes when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
