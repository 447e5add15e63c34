package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/repository"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error)
	Departments(ctx context.Context) ([]string, error)
	Create(ctx context.Context, course *models.Course) error
	ListWithEnrollmentCounts(ctx context.Context) ([]models.CourseWithEnrollmentCount, error)
}

// CourseService manages the course catalogue.
type CourseService struct {
	courses   courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{courses: courses, validator: validate, logger: logger}
}

// List returns the catalogue with instructor names.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Departments returns the distinct departments in the catalogue.
func (s *CourseService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.courses.Departments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// Create adds a course owned by the given instructor.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest, instructorID string) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Code:         req.Code,
		Title:        req.Title,
		Department:   req.Department,
		InstructorID: instructorID,
		Credits:      req.Credits,
		Session:      req.Session,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// ListWithEnrollmentCounts is the admin catalogue projection.
func (s *CourseService) ListWithEnrollmentCounts(ctx context.Context) ([]models.CourseWithEnrollmentCount, error) {
	courses, err := s.courses.ListWithEnrollmentCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}
