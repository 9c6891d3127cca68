package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// BlogRepository handles blog post persistence.
type BlogRepository struct {
	db *sqlx.DB
}

// NewBlogRepository constructs the repository.
func NewBlogRepository(db *sqlx.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

const blogColumns = `id, title, slug, summary, content, published, published_at, author_id, created_at, updated_at`

// List returns blogs matching the filter with a total count.
func (r *BlogRepository) List(ctx context.Context, filter models.BlogFilter) ([]models.Blog, int, error) {
	baseQuery := `FROM blogs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Published != nil {
		conditions = append(conditions, fmt.Sprintf("published = $%d", len(args)+1))
		args = append(args, *filter.Published)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(summary) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", blogColumns, baseQuery, pageSize, offset)
	var blogs []models.Blog
	if err := r.db.SelectContext(ctx, &blogs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list blogs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", baseQuery), args...); err != nil {
		return nil, 0, fmt.Errorf("count blogs: %w", err)
	}
	return blogs, total, nil
}

// GetByID retrieves a single blog row.
func (r *BlogRepository) GetByID(ctx context.Context, id int64) (*models.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs WHERE id = $1`, blogColumns)
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, id); err != nil {
		return nil, err
	}
	return &blog, nil
}

// GetBySlug retrieves a single blog row by its slug.
func (r *BlogRepository) GetBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	query := fmt.Sprintf(`SELECT %s FROM blogs WHERE slug = $1`, blogColumns)
	var blog models.Blog
	if err := r.db.GetContext(ctx, &blog, query, slug); err != nil {
		return nil, err
	}
	return &blog, nil
}

// Create inserts a blog row.
func (r *BlogRepository) Create(ctx context.Context, blog *models.Blog) error {
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	const query = `INSERT INTO blogs (title, slug, summary, content, published, published_at, author_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		blog.Title, blog.Slug, blog.Summary, blog.Content, blog.Published, blog.PublishedAt, blog.AuthorID, blog.CreatedAt, blog.UpdatedAt,
	).Scan(&blog.ID); err != nil {
		return fmt.Errorf("create blog: %w", err)
	}
	return nil
}

// Update persists mutable blog fields.
func (r *BlogRepository) Update(ctx context.Context, blog *models.Blog) error {
	blog.UpdatedAt = time.Now().UTC()
	const query = `UPDATE blogs SET title = $2, slug = $3, summary = $4, content = $5, published = $6, published_at = $7, updated_at = $8 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, blog.ID, blog.Title, blog.Slug, blog.Summary, blog.Content, blog.Published, blog.PublishedAt, blog.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check blog update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a blog row.
func (r *BlogRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check blog delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
