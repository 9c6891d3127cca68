package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// TestimonialRepository handles testimonial persistence.
type TestimonialRepository struct {
	db *sqlx.DB
}

// NewTestimonialRepository constructs the repository.
func NewTestimonialRepository(db *sqlx.DB) *TestimonialRepository {
	return &TestimonialRepository{db: db}
}

const testimonialColumns = `id, author, company, quote, active, created_at, updated_at`

// List returns testimonials, optionally only active ones.
func (r *TestimonialRepository) List(ctx context.Context, activeOnly bool) ([]models.Testimonial, error) {
	query := fmt.Sprintf(`SELECT %s FROM testimonials`, testimonialColumns)
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at DESC`
	var items []models.Testimonial
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return items, nil
}

// GetByID retrieves one testimonial row.
func (r *TestimonialRepository) GetByID(ctx context.Context, id int64) (*models.Testimonial, error) {
	query := fmt.Sprintf(`SELECT %s FROM testimonials WHERE id = $1`, testimonialColumns)
	var item models.Testimonial
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a testimonial row.
func (r *TestimonialRepository) Create(ctx context.Context, item *models.Testimonial) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO testimonials (author, company, quote, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		item.Author, item.Company, item.Quote, item.Active, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID); err != nil {
		return fmt.Errorf("create testimonial: %w", err)
	}
	return nil
}

// Update persists mutable testimonial fields.
func (r *TestimonialRepository) Update(ctx context.Context, item *models.Testimonial) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE testimonials SET author = $2, company = $3, quote = $4, active = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, item.ID, item.Author, item.Company, item.Quote, item.Active, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update testimonial: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check testimonial update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a testimonial row.
func (r *TestimonialRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check testimonial delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
