package service

import (
	"context"
	"database/sql"
	"errors"
	"path"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type slideRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Slide, error)
	GetByID(ctx context.Context, id int64) (*models.Slide, error)
	Create(ctx context.Context, slide *models.Slide) error
	Update(ctx context.Context, slide *models.Slide) error
	Delete(ctx context.Context, id int64) error
}

// SlideService manages the landing page carousel.
type SlideService struct {
	repo      slideRepository
	files     *FileService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSlideService constructs the service.
func NewSlideService(repo slideRepository, files *FileService, validate *validator.Validate, logger *zap.Logger) *SlideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlideService{repo: repo, files: files, validator: validate, logger: logger}
}

// SlideRequest describes create and update payloads.
type SlideRequest struct {
	Title    string `json:"title" validate:"required"`
	Caption  string `json:"caption"`
	LinkURL  string `json:"link_url"`
	Position int    `json:"position" validate:"gte=0"`
	Active   bool   `json:"active"`
}

// SlideView pairs a slide with its current image path, if any.
type SlideView struct {
	models.Slide
	ImageURL string `json:"image_url,omitempty"`
}

const slideOwnerType = "slide"

// List returns slides in display order, each with its current image.
func (s *SlideService) List(ctx context.Context, activeOnly bool) ([]SlideView, error) {
	slides, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slides")
	}
	views := make([]SlideView, 0, len(slides))
	for _, slide := range slides {
		views = append(views, SlideView{Slide: slide, ImageURL: s.imageURL(ctx, slide.ID)})
	}
	return views, nil
}

// Get returns a slide by id with its current image.
func (s *SlideService) Get(ctx context.Context, id int64) (*SlideView, error) {
	slide, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slide")
	}
	return &SlideView{Slide: *slide, ImageURL: s.imageURL(ctx, slide.ID)}, nil
}

// Create stores a new slide.
func (s *SlideService) Create(ctx context.Context, req SlideRequest) (*models.Slide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slide payload")
	}
	slide := &models.Slide{
		Title:    req.Title,
		Caption:  req.Caption,
		LinkURL:  req.LinkURL,
		Position: req.Position,
		Active:   req.Active,
	}
	if err := s.repo.Create(ctx, slide); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slide")
	}
	return slide, nil
}

// Update modifies an existing slide.
func (s *SlideService) Update(ctx context.Context, id int64, req SlideRequest) (*models.Slide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slide payload")
	}
	slide, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slide")
	}
	slide.Title = req.Title
	slide.Caption = req.Caption
	slide.LinkURL = req.LinkURL
	slide.Position = req.Position
	slide.Active = req.Active
	if err := s.repo.Update(ctx, slide); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slide")
	}
	return slide, nil
}

// Delete removes a slide together with its image file.
func (s *SlideService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slide")
	}
	if s.files != nil {
		if _, err := s.files.DeleteAll(ctx, models.UploadKey{OwnerType: slideOwnerType, OwnerID: id}); err != nil {
			s.logger.Warn("failed to delete slide image", zap.Int64("slide_id", id), zap.Error(err))
		}
	}
	return nil
}

// UploadImage replaces the slide's image.
func (s *SlideService) UploadImage(ctx context.Context, id int64, upload FileUpload) (*models.FileRecord, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slide")
	}
	return s.files.Put(ctx, models.UploadKey{OwnerType: slideOwnerType, OwnerID: id}, upload)
}

func (s *SlideService) imageURL(ctx context.Context, id int64) string {
	if s.files == nil {
		return ""
	}
	record, err := s.files.GetCurrent(ctx, models.UploadKey{OwnerType: slideOwnerType, OwnerID: id})
	if err != nil || record == nil {
		return ""
	}
	return path.Clean(record.StoragePath)
}
