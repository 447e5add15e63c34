package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aims-campus/aims-api/internal/models"
)

func newAdvisorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAdvisorRepositoryExists(t *testing.T) {
	db, mock, cleanup := newAdvisorRepoMock(t)
	defer cleanup()
	repo := NewAdvisorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM advisor_students WHERE student_id = $1 AND advisor_id = $2")).
		WithArgs("stu-1", "adv-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assigned, err := repo.Exists(context.Background(), "stu-1", "adv-1")
	require.NoError(t, err)
	assert.True(t, assigned)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM advisor_students WHERE student_id = $1 AND advisor_id = $2")).
		WithArgs("stu-1", "adv-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	assigned, err = repo.Exists(context.Background(), "stu-1", "adv-2")
	require.NoError(t, err)
	assert.False(t, assigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisorRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newAdvisorRepoMock(t)
	defer cleanup()
	repo := NewAdvisorRepository(db)

	mock.ExpectExec("INSERT INTO advisor_students").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.AdvisorAssignment{StudentID: "stu-1", AdvisorID: "adv-1"})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvisorRepositoryListStudents(t *testing.T) {
	db, mock, cleanup := newAdvisorRepoMock(t)
	defer cleanup()
	repo := NewAdvisorRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "code", "full_name", "email", "department"}).
		AddRow("stu-1", "BT22CS001", "Demo Student", "student@campus.edu", "CSE")
	mock.ExpectQuery("SELECT (.+) FROM advisor_students a").
		WithArgs("adv-1", "%demo%").
		WillReturnRows(rows)

	students, err := repo.ListStudents(context.Background(), "adv-1", "Demo")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "BT22CS001", students[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
