package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/aims-campus/aims-api/internal/models"
	"github.com/aims-campus/aims-api/internal/repository"
	appErrors "github.com/aims-campus/aims-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type advisorAssignmentRepository interface {
	CountForStudent(ctx context.Context, studentID string) (int, error)
	Create(ctx context.Context, assignment *models.AdvisorAssignment) error
}

// UserService covers the admin-facing identity operations: registering users
// and binding students to advisors. Role is fixed at creation.
type UserService struct {
	users     userRepository
	advisors  advisorAssignmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(users userRepository, advisors advisorAssignmentRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, advisors: advisors, validator: validate, logger: logger}
}

// CreateUser registers a new user. When the payload names an advisor for a
// new student, the assignment is created in the same call; the one-advisor
// rule is enforced here since storage only dedupes exact pairs.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	if req.AdvisorID != "" && req.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "advisor assignment applies to students only")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Code:         req.Code,
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Department:   req.Department,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "code or email already registered")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if req.AdvisorID != "" {
		if err := s.assignAdvisor(ctx, user.ID, req.AdvisorID); err != nil {
			s.logger.Warn("advisor assignment during user creation failed",
				zap.String("student_id", user.ID),
				zap.String("advisor_id", req.AdvisorID),
				zap.Error(err))
			return nil, err
		}
	}

	return user, nil
}

// ListUsers returns users filtered by role and search text.
func (s *UserService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// GetUser returns one user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// AssignAdvisor binds an existing student to an advisor.
func (s *UserService) AssignAdvisor(ctx context.Context, req models.AssignAdvisorRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	student, err := s.GetUser(ctx, req.StudentID)
	if err != nil {
		return err
	}
	if student.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "assignment target is not a student")
	}

	advisor, err := s.GetUser(ctx, req.AdvisorID)
	if err != nil {
		return err
	}
	if advisor.Role != models.RoleAdvisor {
		return appErrors.Clone(appErrors.ErrValidation, "assignee is not an advisor")
	}

	return s.assignAdvisor(ctx, req.StudentID, req.AdvisorID)
}

func (s *UserService) assignAdvisor(ctx context.Context, studentID, advisorID string) error {
	count, err := s.advisors.CountForStudent(ctx, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count advisor assignments")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "student already has an advisor")
	}

	assignment := &models.AdvisorAssignment{StudentID: studentID, AdvisorID: advisorID}
	if err := s.advisors.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return appErrors.Clone(appErrors.ErrConflict, "student already has an advisor")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create advisor assignment")
	}
	return nil
}
