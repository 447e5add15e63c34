package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/repository"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type mockCourseCatalog struct {
	courses   map[string]*models.Course
	duplicate bool
}

func (m *mockCourseCatalog) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *course
	return &copied, nil
}

func (m *mockCourseCatalog) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	return nil, nil
}

func (m *mockCourseCatalog) Departments(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (m *mockCourseCatalog) Create(ctx context.Context, course *models.Course) error {
	if m.duplicate {
		return repository.ErrDuplicate
	}
	if m.courses == nil {
		m.courses = make(map[string]*models.Course)
	}
	course.ID = "crs-new"
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseCatalog) ListWithEnrollmentCounts(ctx context.Context) ([]models.CourseWithEnrollmentCount, error) {
	return nil, nil
}

func validCourseRequest() models.CreateCourseRequest {
	return models.CreateCourseRequest{
		Code:       "CS301",
		Title:      "Algorithms",
		Department: "CSE",
		Credits:    4,
		Session:    "2025-26 Sem II",
	}
}

func TestCreateCourseOwnedByCaller(t *testing.T) {
	catalog := &mockCourseCatalog{}
	svc := NewCourseService(catalog, nil, zap.NewNop())

	course, err := svc.Create(context.Background(), validCourseRequest(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "inst-1", course.InstructorID)
	assert.Equal(t, "CS301", catalog.courses["crs-new"].Code)
}

func TestCreateCourseDuplicateCode(t *testing.T) {
	svc := NewCourseService(&mockCourseCatalog{duplicate: true}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validCourseRequest(), "inst-1")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrConflict.Code)
}

func TestCreateCourseRejectsInvalidPayload(t *testing.T) {
	svc := NewCourseService(&mockCourseCatalog{}, nil, zap.NewNop())

	req := validCourseRequest()
	req.Credits = 0
	_, err := svc.Create(context.Background(), req, "inst-1")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrValidation.Code)
}

func TestGetCourseNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseCatalog{}, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assertAppError(t, err, appErrors.ErrNotFound.Code)
}
