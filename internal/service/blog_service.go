package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/emma-hr/emma-api/internal/models"
	appErrors "github.com/emma-hr/emma-api/pkg/errors"
)

type blogRepository interface {
	List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error)
	GetByID(ctx context.Context, id int64) (*models.Blog, error)
	GetBySlug(ctx context.Context, slug string) (*models.Blog, error)
	Create(ctx context.Context, blog *models.Blog) error
	Update(ctx context.Context, blog *models.Blog) error
	Delete(ctx context.Context, id int64) error
}

// BlogService handles blog post workflows.
type BlogService struct {
	repo      blogRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlogService constructs the service.
func NewBlogService(repo blogRepository, validate *validator.Validate, logger *zap.Logger) *BlogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogService{repo: repo, validator: validate, logger: logger}
}

// BlogListRequest describes filters for listing blog posts.
type BlogListRequest struct {
	Published *bool  `json:"published"`
	Search    string `json:"search"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// CreateBlogRequest describes the create payload.
type CreateBlogRequest struct {
	Title     string `json:"title" validate:"required"`
	Slug      string `json:"slug"`
	Summary   string `json:"summary"`
	Content   string `json:"content" validate:"required"`
	Published bool   `json:"published"`
	AuthorID  int64  `json:"author_id" validate:"required"`
}

// UpdateBlogRequest describes the update payload.
type UpdateBlogRequest struct {
	Title     string `json:"title" validate:"required"`
	Slug      string `json:"slug"`
	Summary   string `json:"summary"`
	Content   string `json:"content" validate:"required"`
	Published bool   `json:"published"`
}

// List returns blog posts with pagination.
func (s *BlogService) List(ctx context.Context, req BlogListRequest) ([]models.Blog, *models.Pagination, error) {
	filter := models.BlogFilter{
		Published: req.Published,
		Search:    req.Search,
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
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list blog posts")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rows, pagination, nil
}

// Get returns a blog post by id.
func (s *BlogService) Get(ctx context.Context, id int64) (*models.Blog, error) {
	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blog post")
	}
	return blog, nil
}

// GetBySlug returns a published blog post by its slug.
func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	blog, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load blog post")
	}
	return blog, nil
}

// Create stores a new blog post. An empty slug is derived from the title.
func (s *BlogService) Create(ctx context.Context, req CreateBlogRequest) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Title)
	}
	if existing, err := s.repo.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a blog post with this slug already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
	}

	blog := &models.Blog{
		Title:     req.Title,
		Slug:      slug,
		Summary:   req.Summary,
		Content:   req.Content,
		Published: req.Published,
		AuthorID:  req.AuthorID,
	}
	if req.Published {
		now := time.Now().UTC()
		blog.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create blog post")
	}
	return blog, nil
}

// Update modifies an existing blog post.
func (s *BlogService) Update(ctx context.Context, id int64, req UpdateBlogRequest) (*models.Blog, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid blog payload")
	}

	blog, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasPublished := blog.Published
	blog.Title = req.Title
	if req.Slug != "" {
		blog.Slug = req.Slug
	}
	blog.Summary = req.Summary
	blog.Content = req.Content
	blog.Published = req.Published
	if req.Published && !wasPublished {
		now := time.Now().UTC()
		blog.PublishedAt = &now
	}

	if err := s.repo.Update(ctx, blog); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "blog post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update blog post")
	}
	return blog, nil
}

// Delete removes a blog post.
func (s *BlogService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "blog post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete blog post")
	}
	return nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the title and collapses runs of non-alphanumerics
// into single hyphens.
func Slugify(title string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
