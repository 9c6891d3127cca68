package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type positionRepository interface {
	List(ctx context.Context, filter models.PositionFilter) ([]models.Position, int, error)
	GetByID(ctx context.Context, id int64) (*models.Position, error)
	Create(ctx context.Context, position *models.Position) error
	Update(ctx context.Context, position *models.Position) error
	Delete(ctx context.Context, id int64) error
}

// PositionService manages job postings.
type PositionService struct {
	repo      positionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPositionService constructs the service.
func NewPositionService(repo positionRepository, validate *validator.Validate, logger *zap.Logger) *PositionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &PositionService{repo: repo, validator: validate, logger: logger}
	svc.validator.RegisterValidation("positionstatus", func(fl validator.FieldLevel) bool {
		switch models.PositionStatus(strings.ToUpper(fl.Field().String())) {
		case models.PositionOpen, models.PositionClosed:
			return true
		default:
			return false
		}
	})
	return svc
}

// PositionListRequest describes filters for listing job postings.
type PositionListRequest struct {
	Status   string `json:"status"`
	Search   string `json:"search"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// PositionRequest describes create and update payloads.
type PositionRequest struct {
	Title        string     `json:"title" validate:"required"`
	Department   string     `json:"department" validate:"required"`
	Location     string     `json:"location"`
	Description  string     `json:"description" validate:"required"`
	Requirements string     `json:"requirements"`
	Status       string     `json:"status" validate:"required,positionstatus"`
	ClosesAt     *time.Time `json:"closes_at"`
}

// List returns job postings with pagination.
func (s *PositionService) List(ctx context.Context, req PositionListRequest) ([]models.Position, *models.Pagination, error) {
	filter := models.PositionFilter{
		Status:   models.PositionStatus(strings.ToUpper(req.Status)),
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list positions")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a job posting by id.
func (s *PositionService) Get(ctx context.Context, id int64) (*models.Position, error) {
	position, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load position")
	}
	return position, nil
}

// Create stores a new job posting.
func (s *PositionService) Create(ctx context.Context, req PositionRequest) (*models.Position, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid position payload")
	}
	position := &models.Position{
		Title:        req.Title,
		Department:   req.Department,
		Location:     req.Location,
		Description:  req.Description,
		Requirements: req.Requirements,
		Status:       models.PositionStatus(strings.ToUpper(req.Status)),
		ClosesAt:     req.ClosesAt,
	}
	if err := s.repo.Create(ctx, position); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create position")
	}
	return position, nil
}

// Update modifies an existing job posting.
func (s *PositionService) Update(ctx context.Context, id int64, req PositionRequest) (*models.Position, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid position payload")
	}
	position, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	position.Title = req.Title
	position.Department = req.Department
	position.Location = req.Location
	position.Description = req.Description
	position.Requirements = req.Requirements
	position.Status = models.PositionStatus(strings.ToUpper(req.Status))
	position.ClosesAt = req.ClosesAt
	if err := s.repo.Update(ctx, position); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update position")
	}
	return position, nil
}

// Delete removes a job posting.
func (s *PositionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "position not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete position")
	}
	return nil
}
