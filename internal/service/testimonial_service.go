package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type testimonialRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Testimonial, error)
	GetByID(ctx context.Context, id int64) (*models.Testimonial, error)
	Create(ctx context.Context, item *models.Testimonial) error
	Update(ctx context.Context, item *models.Testimonial) error
	Delete(ctx context.Context, id int64) error
}

// TestimonialService manages customer testimonials.
type TestimonialService struct {
	repo      testimonialRepository
	files     *FileService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTestimonialService constructs the service.
func NewTestimonialService(repo testimonialRepository, files *FileService, validate *validator.Validate, logger *zap.Logger) *TestimonialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestimonialService{repo: repo, files: files, validator: validate, logger: logger}
}

// TestimonialRequest describes create and update payloads.
type TestimonialRequest struct {
	Author  string `json:"author" validate:"required"`
	Company string `json:"company"`
	Quote   string `json:"quote" validate:"required"`
	Active  bool   `json:"active"`
}

const testimonialOwnerType = "testimonial"

// List returns testimonials, optionally only active ones.
func (s *TestimonialService) List(ctx context.Context, activeOnly bool) ([]models.Testimonial, error) {
	items, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list testimonials")
	}
	return items, nil
}

// Get returns a testimonial by id.
func (s *TestimonialService) Get(ctx context.Context, id int64) (*models.Testimonial, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "testimonial not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load testimonial")
	}
	return item, nil
}

// Create stores a new testimonial.
func (s *TestimonialService) Create(ctx context.Context, req TestimonialRequest) (*models.Testimonial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid testimonial payload")
	}
	item := &models.Testimonial{
		Author:  req.Author,
		Company: req.Company,
		Quote:   req.Quote,
		Active:  req.Active,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create testimonial")
	}
	return item, nil
}

// Update modifies an existing testimonial.
func (s *TestimonialService) Update(ctx context.Context, id int64, req TestimonialRequest) (*models.Testimonial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid testimonial payload")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Author = req.Author
	item.Company = req.Company
	item.Quote = req.Quote
	item.Active = req.Active
	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "testimonial not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update testimonial")
	}
	return item, nil
}

// Delete removes a testimonial together with its portrait image.
func (s *TestimonialService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "testimonial not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete testimonial")
	}
	if s.files != nil {
		if _, err := s.files.DeleteAll(ctx, models.UploadKey{OwnerType: testimonialOwnerType, OwnerID: id}); err != nil {
			s.logger.Warn("failed to delete testimonial image", zap.Int64("testimonial_id", id), zap.Error(err))
		}
	}
	return nil
}

// UploadImage replaces the testimonial's portrait image.
func (s *TestimonialService) UploadImage(ctx context.Context, id int64, upload FileUpload) (*models.FileRecord, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.files.Put(ctx, models.UploadKey{OwnerType: testimonialOwnerType, OwnerID: id}, upload)
}
