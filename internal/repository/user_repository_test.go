package repository

import (
	"context"
	"database/sql"
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

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "email", "password_hash", "full_name", "role", "department", "created_at"})
}

func TestUserRepositoryFindByEmailAndRole(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	dept := "CSE"
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1 AND role = \\$2").
		WithArgs("student@campus.edu", models.RoleStudent).
		WillReturnRows(userRows().AddRow("stu-1", "BT22CS001", "student@campus.edu", "hash", "Demo Student", "student", &dept, time.Now()))

	user, err := repo.FindByEmailAndRole(context.Background(), "student@campus.edu", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, "BT22CS001", user.Code)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmailAndRoleMiss(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1 AND role = \\$2").
		WithArgs("student@campus.edu", models.RoleAdmin).
		WillReturnRows(userRows())

	_, err := repo.FindByEmailAndRole(context.Background(), "student@campus.edu", models.RoleAdmin)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE role = \\$1 AND \\(LOWER\\(full_name\\) LIKE \\$2 OR LOWER\\(code\\) LIKE \\$2\\)").
		WithArgs(models.RoleStudent, "%demo%").
		WillReturnRows(userRows().AddRow("stu-1", "BT22CS001", "student@campus.edu", "hash", "Demo Student", "student", nil, time.Now()))

	users, err := repo.List(context.Background(), models.UserFilter{Role: models.RoleStudent, Search: "Demo"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Demo Student", users[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "ADM001", "admin@campus.edu", "hash", "Site Admin", models.RoleAdmin, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &models.User{Code: "ADM001", Email: "admin@campus.edu", PasswordHash: "hash", FullName: "Site Admin", Role: models.RoleAdmin}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Code: "ADM001", Email: "admin@campus.edu", Role: models.RoleAdmin})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
