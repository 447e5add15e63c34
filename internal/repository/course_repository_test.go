package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aims-campus/aims-api/internal/models"
)

func newCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "title", "department", "instructor_id", "credits", "session", "created_at", "instructor_name"}).
		AddRow("crs-1", "CS301", "Algorithms", "CSE", "inst-1", 4, "2025-26 Sem II", time.Now(), "Demo Instructor")
	mock.ExpectQuery("SELECT (.+) FROM courses c\\s+JOIN users u ON u.id = c.instructor_id WHERE c.department = \\$1 AND c.code ILIKE \\$2").
		WithArgs("CSE", "%CS3%").
		WillReturnRows(rows)

	courses, err := repo.List(context.Background(), models.CourseFilter{Department: "CSE", Code: "CS3"})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS301", courses[0].Code)
	assert.Equal(t, "Demo Instructor", courses[0].InstructorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDepartments(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT department FROM courses ORDER BY department")).
		WillReturnRows(sqlmock.NewRows([]string{"department"}).AddRow("CSE").AddRow("ECE"))

	departments, err := repo.Departments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"CSE", "ECE"}, departments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courses")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Course{Code: "CS301", Title: "Algorithms", Department: "CSE", InstructorID: "inst-1", Credits: 4, Session: "2025-26 Sem II"})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListWithEnrollmentCounts(t *testing.T) {
	db, mock, cleanup := newCourseRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "title", "department", "instructor_id", "credits", "session", "created_at", "enrollment_count"}).
		AddRow("crs-1", "CS301", "Algorithms", "CSE", "inst-1", 4, "2025-26 Sem II", time.Now(), 12).
		AddRow("crs-2", "CS305", "Database Systems", "CSE", "inst-1", 4, "2025-26 Sem II", time.Now(), 0)
	mock.ExpectQuery("SELECT (.+) FROM courses c\\s+LEFT JOIN enrollments e ON e.course_id = c.id").
		WillReturnRows(rows)

	courses, err := repo.ListWithEnrollmentCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, 12, courses[0].EnrollmentCount)
	assert.Equal(t, 0, courses[1].EnrollmentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
