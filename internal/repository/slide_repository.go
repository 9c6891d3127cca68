package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emma-hr/emma-api/internal/models"
)

// SlideRepository handles landing page slide persistence.
type SlideRepository struct {
	db *sqlx.DB
}

// NewSlideRepository constructs the repository.
func NewSlideRepository(db *sqlx.DB) *SlideRepository {
	return &SlideRepository{db: db}
}

const slideColumns = `id, title, caption, link_url, position, active, created_at, updated_at`

// List returns slides ordered by position. When activeOnly is set, inactive
// slides are excluded (the public carousel view).
func (r *SlideRepository) List(ctx context.Context, activeOnly bool) ([]models.Slide, error) {
	query := fmt.Sprintf(`SELECT %s FROM slides`, slideColumns)
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY position ASC, id ASC`
	var slides []models.Slide
	if err := r.db.SelectContext(ctx, &slides, query); err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	return slides, nil
}

// GetByID retrieves one slide row.
func (r *SlideRepository) GetByID(ctx context.Context, id int64) (*models.Slide, error) {
	query := fmt.Sprintf(`SELECT %s FROM slides WHERE id = $1`, slideColumns)
	var slide models.Slide
	if err := r.db.GetContext(ctx, &slide, query, id); err != nil {
		return nil, err
	}
	return &slide, nil
}

// Create inserts a slide row.
func (r *SlideRepository) Create(ctx context.Context, slide *models.Slide) error {
	now := time.Now().UTC()
	slide.CreatedAt = now
	slide.UpdatedAt = now
	const query = `INSERT INTO slides (title, caption, link_url, position, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		slide.Title, slide.Caption, slide.LinkURL, slide.Position, slide.Active, slide.CreatedAt, slide.UpdatedAt,
	).Scan(&slide.ID); err != nil {
		return fmt.Errorf("create slide: %w", err)
	}
	return nil
}

// Update persists mutable slide fields.
func (r *SlideRepository) Update(ctx context.Context, slide *models.Slide) error {
	slide.UpdatedAt = time.Now().UTC()
	const query = `UPDATE slides SET title = $2, caption = $3, link_url = $4, position = $5, active = $6, updated_at = $7 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, slide.ID, slide.Title, slide.Caption, slide.LinkURL, slide.Position, slide.Active, slide.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update slide: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check slide update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a slide row.
func (r *SlideRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM slides WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slide: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check slide delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
