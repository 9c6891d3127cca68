package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	GetByID(ctx context.Context, id int64) (*models.Assignment, error)
	FindByCourseAndUser(ctx context.Context, courseID, userID int64) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	UpdateProgress(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id int64) error
}

type assignmentUserSource interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// AssignmentService assigns courses to users and tracks their progress.
// Reaching full progress issues a completion certificate.
type AssignmentService struct {
	repo         assignmentRepository
	courses      courseRepository
	users        assignmentUserSource
	certificates *CertificateService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentRepository, courses courseRepository, users assignmentUserSource, certificates *CertificateService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:         repo,
		courses:      courses,
		users:        users,
		certificates: certificates,
		validator:    validate,
		logger:       logger,
	}
}

// AssignmentListRequest describes filters for listing assignments.
type AssignmentListRequest struct {
	CourseID  int64 `json:"course_id"`
	UserID    int64 `json:"user_id"`
	Completed *bool `json:"completed"`
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
}

// AssignCourseRequest links a user to a course.
type AssignCourseRequest struct {
	CourseID int64 `json:"course_id" validate:"required"`
	UserID   int64 `json:"user_id" validate:"required"`
}

// UpdateProgressRequest moves an assignment's progress forward.
type UpdateProgressRequest struct {
	Progress int `json:"progress" validate:"gte=0,lte=100"`
}

// AssignmentView pairs an assignment with its certificate, when issued.
type AssignmentView struct {
	models.Assignment
	Certificate *models.Certificate `json:"certificate,omitempty"`
}

// List returns assignments with pagination.
func (s *AssignmentService) List(ctx context.Context, req AssignmentListRequest) ([]models.Assignment, *models.Pagination, error) {
	filter := models.AssignmentFilter{
		CourseID:  req.CourseID,
		UserID:    req.UserID,
		Completed: req.Completed,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns an assignment by id.
func (s *AssignmentService) Get(ctx context.Context, id int64) (*models.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Assign links a user to an active course. Assigning the same course twice
// is a conflict.
func (s *AssignmentService) Assign(ctx context.Context, req AssignCourseRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	course, err := s.courses.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not active")
	}

	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if existing, err := s.repo.FindByCourseAndUser(ctx, req.CourseID, req.UserID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course is already assigned to this user")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}

	assignment := &models.Assignment{
		CourseID: req.CourseID,
		UserID:   req.UserID,
		Progress: 0,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// UpdateProgress records new progress for the user's own assignment.
// Progress is monotonic; hitting 100 marks completion and issues the
// certificate. Completed assignments do not move backwards.
func (s *AssignmentService) UpdateProgress(ctx context.Context, id int64, userID int64, req UpdateProgressRequest) (*AssignmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}

	assignment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "assignment belongs to another user")
	}
	if assignment.Completed() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment is already completed")
	}
	if req.Progress < assignment.Progress {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "progress cannot decrease")
	}

	assignment.Progress = req.Progress
	if req.Progress == 100 {
		now := time.Now().UTC()
		assignment.CompletedAt = &now
	}
	if err := s.repo.UpdateProgress(ctx, assignment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress")
	}

	view := &AssignmentView{Assignment: *assignment}
	if assignment.Completed() && s.certificates != nil {
		cert, err := s.issueCertificate(ctx, assignment)
		if err != nil {
			// Completion stands; the certificate can be issued on demand later.
			s.logger.Warn("failed to issue certificate",
				zap.Int64("assignment_id", assignment.ID),
				zap.Error(err))
		} else {
			view.Certificate = cert
		}
	}
	return view, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) issueCertificate(ctx context.Context, assignment *models.Assignment) (*models.Certificate, error) {
	user, err := s.users.FindByID(ctx, assignment.UserID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}
	return s.certificates.Issue(ctx, assignment, user, course)
}
